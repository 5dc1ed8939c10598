package elements

import "errors"

var (
	ErrTableAlreadyAddedToRegistry = errors.New("table already added to registry")
	ErrTableNotFound               = errors.New("table not found")
	ErrTableInvalid                = errors.New("table invalid")
	ErrSourceInvalid               = errors.New("source invalid")
	ErrColumnNotFound              = errors.New("column not found")
)
