package main

import (
	"log/slog"
	"os"

	"github.com/alekLukanen/errs"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		logger.Error("sparkify-etl failed", slog.String("error", errs.ErrorWithStack(err)))
		os.Exit(1)
	}
}
