package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/alekLukanen/SparkifyLake/config"
	"github.com/alekLukanen/SparkifyLake/operations"
	"github.com/alekLukanen/SparkifyLake/runners"
	"github.com/alekLukanen/SparkifyLake/storage"
	"github.com/alekLukanen/SparkifyLake/warehouse"
)

// Version is set at build time.
var Version = "0.1.0"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sparkify-etl",
		Short: "Build the sparkify star schema tables from song and log data",
		Long: `sparkify-etl reads the song_data and log_data JSON files below the input
location and writes the songs, artists, users, time and songplays tables as
partitioned parquet below the output location.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runETL,
	}
	config.RegisterFlags(rootCmd.PersistentFlags())

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ETL once",
		Args:  cobra.NoArgs,
		RunE:  runETL,
	}
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "sparkify-etl %s\n", Version)
			return err
		},
	}
	rootCmd.AddCommand(runCmd, versionCmd)
	return rootCmd
}

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("log.level %s", cfg.Level)), config.ErrInvalidConfig)
	}
	handlerOptions := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "text" {
		return slog.New(slog.NewTextHandler(w, handlerOptions)), nil
	}
	return slog.New(slog.NewJSONHandler(w, handlerOptions)), nil
}

func runETL(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	cfgFile, err := flags.GetString("config")
	if err != nil {
		return errs.Wrap(err)
	}
	cfg, err := config.Load(cfgFile, flags)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.OutOrStdout(), cfg.Log)
	if err != nil {
		return err
	}
	if cfg.ConfigFile != "" {
		logger.Info("loaded config", slog.String("file", cfg.ConfigFile))
	}
	if err := cfg.ExportCredentials(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	mode, err := operations.ParseSaveMode(cfg.Write.Mode)
	if err != nil {
		return err
	}

	wh, err := warehouse.NewWarehouse(ctx, logger, memory.NewGoAllocator(), warehouse.Options{
		InputData:     cfg.InputData,
		OutputData:    cfg.OutputData,
		SongDataGlob:  cfg.SongDataGlob,
		LogDataGlob:   cfg.LogDataGlob,
		TimeZone:      loc,
		BucketCount:   cfg.Write.BucketCount,
		ObjectStorage: cfg.ObjectStorageOptions(),
		Read:          operations.ReadSourceOptions{Concurrency: cfg.Read.Concurrency},
		Write: operations.TableWriterOptions{
			Mode:              mode,
			MaxRecordsPerFile: cfg.Write.MaxRecordsPerFile,
			Compression:       cfg.Write.Compression,
		},
	})
	if err != nil {
		return err
	}

	var keyStorage storage.IKeyStorage
	if cfg.LockEnabled() {
		redisStorage, err := storage.NewKeyStorage(ctx, logger, cfg.KeyStorageOptions())
		if err != nil {
			return err
		}
		defer redisStorage.Close()
		keyStorage = redisStorage
	}

	runner := runners.NewSingleThreadedRunner(logger, wh, keyStorage, runners.SingleThreadedRunnerOptions{
		LockDuration: cfg.Lock.Duration,
	})
	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	for _, table := range summary.Tables {
		logger.Info(
			"table summary",
			slog.String("table", table.TableName),
			slog.Int64("rows", table.NumRows),
			slog.Int("files", table.NumFiles),
			slog.Bool("skipped", table.Skipped),
		)
	}
	logger.Info("sparkify-etl finished", slog.String("runId", summary.RunId), slog.Duration("elapsed", summary.Elapsed))
	return nil
}
