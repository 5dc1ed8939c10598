package warehouse

import "errors"

var (
	ErrRunFailed       = errors.New("run failed")
	ErrTableNotWritten = errors.New("table not written")
)
