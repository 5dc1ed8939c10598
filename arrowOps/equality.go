package arrowops

import (
	"slices"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// RecordsEqual compares the named columns of both records. With no
// fields every column is compared.
func RecordsEqual(rec1, rec2 arrow.Record, fields ...string) bool {
	if rec1.NumRows() != rec2.NumRows() {
		return false
	}
	for i := 0; i < int(rec1.NumCols()); i++ {
		columnName := rec1.ColumnName(i)
		if len(fields) > 0 && !slices.Contains(fields, columnName) {
			continue
		}
		rec2Idxs := rec2.Schema().FieldIndices(columnName)
		if len(rec2Idxs) != 1 {
			return false
		}
		if !array.Equal(rec1.Column(i), rec2.Column(rec2Idxs[0])) {
			return false
		}
	}
	return true
}

func RecordSchemasEqual(record1 arrow.Record, record2 arrow.Record, fields ...string) bool {

	record1Schema := record1.Schema()
	record2Schema := record2.Schema()
	if len(fields) == 0 {
		return record1Schema.Equal(record2Schema)
	}
	for _, f := range fields {
		idx1 := record1Schema.FieldIndices(f)
		idx2 := record2Schema.FieldIndices(f)
		if len(idx1) != 1 || len(idx2) != 1 {
			return false
		}
		if !record1Schema.Field(idx1[0]).Equal(record2Schema.Field(idx2[0])) {
			return false
		}
	}
	return true
}
