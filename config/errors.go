package config

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadFailed    = errors.New("failed loading config")
)
