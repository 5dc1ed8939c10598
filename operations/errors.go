package operations

import "errors"

var (
	ErrTableAlreadyAddedToRegistry = errors.New("table already added to registry")
	ErrTableNotFound               = errors.New("table not found")
	ErrColumnNotFound              = errors.New("column not found")
	ErrSchemaMismatch              = errors.New("record does not match the table schema")
	ErrNoInputFiles                = errors.New("no input files matched")
	ErrDecodeFailed                = errors.New("failed decoding input file")
	ErrInvalidSaveMode             = errors.New("invalid save mode")
	ErrTableExists                 = errors.New("table already exists")
	ErrPartitionColumnsEmpty       = errors.New("partition columns empty")
)
