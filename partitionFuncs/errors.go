package partitionFuncs

import "errors"

var (
	ErrColumnNotFound               = errors.New("column not found")
	ErrMultipleColumnsFound         = errors.New("multiple columns found")
	ErrInvalidPartitionOptions      = errors.New("invalid partition options")
	ErrValidation                   = errors.New("validation failed")
	ErrStringHashTypeNotImplemented = errors.New("string hash type not implemented")
	ErrValueTypeNotImplemented      = errors.New("value partition type not implemented")
)
