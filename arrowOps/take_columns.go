package arrowops

import (
	"fmt"

	"github.com/alekLukanen/errs"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

func TakeColumns(rec arrow.Record, columnNames []string) (arrow.Record, error) {
	var selectedCols []arrow.Array
	var selectedFields []arrow.Field

	for _, colName := range columnNames {
		colIndex := rec.Schema().FieldIndices(colName)
		if len(colIndex) == 0 {
			return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("column name: %s", colName)), ErrColumnNotFound)
		}
		for _, colIndex := range colIndex {
			selectedCols = append(selectedCols, rec.Column(colIndex))
			selectedFields = append(selectedFields, rec.Schema().Field(colIndex))
		}
	}

	newSchema := arrow.NewSchema(selectedFields, nil)
	newRecord := array.NewRecord(newSchema, selectedCols, rec.NumRows())

	return newRecord, nil
}

// DropColumns returns a record without the named columns. Names that are
// not in the record are ignored.
func DropColumns(rec arrow.Record, columnNames []string) arrow.Record {
	drop := make(map[string]struct{}, len(columnNames))
	for _, name := range columnNames {
		drop[name] = struct{}{}
	}

	var selectedCols []arrow.Array
	var selectedFields []arrow.Field
	for i, field := range rec.Schema().Fields() {
		if _, ok := drop[field.Name]; ok {
			continue
		}
		selectedCols = append(selectedCols, rec.Column(i))
		selectedFields = append(selectedFields, field)
	}

	return array.NewRecord(arrow.NewSchema(selectedFields, nil), selectedCols, rec.NumRows())
}

// RenameColumns returns a record with the columns renamed according to
// the old name -> new name mapping.
func RenameColumns(rec arrow.Record, names map[string]string) (arrow.Record, error) {
	for oldName := range names {
		if !rec.Schema().HasField(oldName) {
			return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("column name: %s", oldName)), ErrColumnNotFound)
		}
	}

	fields := make([]arrow.Field, rec.NumCols())
	for i, field := range rec.Schema().Fields() {
		if newName, ok := names[field.Name]; ok {
			field.Name = newName
		}
		fields[i] = field
	}

	return array.NewRecord(arrow.NewSchema(fields, nil), rec.Columns(), rec.NumRows()), nil
}

// AppendColumn returns a record with the array added as the last column.
func AppendColumn(rec arrow.Record, field arrow.Field, arr arrow.Array) (arrow.Record, error) {
	if int64(arr.Len()) != rec.NumRows() {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("column %s has %d rows, record has %d", field.Name, arr.Len(), rec.NumRows())), ErrColumnLengthInvalid)
	}

	fields := append(append([]arrow.Field{}, rec.Schema().Fields()...), field)
	cols := append(append([]arrow.Array{}, rec.Columns()...), arr)
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, rec.NumRows()), nil
}
