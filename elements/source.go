package elements

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
)

// Source is an input dataset: a set of line-delimited JSON objects
// matched by a glob below the input location.
type Source struct {
	Name    string
	Glob    string
	Columns []Column
}

func NewSource(name, glob string, columns ...Column) Source {
	return Source{
		Name:    name,
		Glob:    glob,
		Columns: columns,
	}
}

func (obj Source) IsValid() error {
	if obj.Name == "" {
		return fmt.Errorf("%w| name invalid", ErrSourceInvalid)
	}
	if obj.Glob == "" {
		return fmt.Errorf("%w| source %s has no glob", ErrSourceInvalid, obj.Name)
	}
	if len(obj.Columns) == 0 {
		return fmt.Errorf("%w| source %s has no columns", ErrSourceInvalid, obj.Name)
	}
	for _, col := range obj.Columns {
		if !col.IsValid() {
			return fmt.Errorf("%w| source %s has an invalid column", ErrSourceInvalid, obj.Name)
		}
	}
	return nil
}

func (obj Source) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(obj.Columns))
	for i, col := range obj.Columns {
		fields[i] = col.Field()
	}
	return arrow.NewSchema(fields, nil)
}
