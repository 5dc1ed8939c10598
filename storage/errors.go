package storage

import (
	"errors"

	"github.com/go-redsync/redsync/v4"
)

var (
	ErrLockFailed         = redsync.ErrFailed
	ErrLockAlreadyExpired = redsync.ErrLockAlreadyExpired
	ErrRunLocked          = errors.New("run is locked")
	ErrManifestInvalid    = errors.New("manifest is invalid")
	ErrInvalidLocation    = errors.New("invalid location")
	ErrUnsupportedScheme  = errors.New("unsupported location scheme")
	ErrInvalidGlob        = errors.New("invalid glob pattern")
	ErrInvalidKey         = errors.New("invalid object key")
)
