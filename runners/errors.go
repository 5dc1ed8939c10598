package runners

import "errors"

var (
	ErrLockNotReleased = errors.New("run lock not released")
	ErrLockLost        = errors.New("run lock lost")
)
