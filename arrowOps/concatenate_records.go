package arrowops

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func ConcatenateRecords(mem *memory.GoAllocator, records ...arrow.Record) (arrow.Record, error) {
	for _, record := range records {
		record.Retain()
	}
	defer func() {
		for _, record := range records {
			record.Release()
		}
	}()
	// validate the records
	if len(records) == 0 {
		return nil, ErrNoDataLeft
	}
	schema := records[0].Schema()
	for _, record := range records {
		if !RecordSchemasEqual(records[0], record) {
			return nil, ErrSchemasNotEqual
		}
	}

	// group all of the columns from each record together
	// so that we can concatenate them together
	fields := make([][]arrow.Array, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		fields[i] = make([]arrow.Array, len(records))
	}
	for recordIdx, record := range records {
		for i := 0; i < schema.NumFields(); i++ {
			fields[i][recordIdx] = record.Column(i)
		}
	}

	// concatenate the columns of the same index together
	concatenatedFields := make([]arrow.Array, schema.NumFields())
	defer func() {
		for _, arr := range concatenatedFields {
			if arr != nil {
				arr.Release()
			}
		}
	}()
	for i := 0; i < schema.NumFields(); i++ {
		concatenatedField, err := array.Concatenate(fields[i], mem)
		if err != nil {
			return nil, err
		}
		concatenatedFields[i] = concatenatedField
	}

	// get the total number of rows in the concatenated record
	var numRows int64
	for _, record := range records {
		numRows += record.NumRows()
	}
	return array.NewRecord(schema, concatenatedFields, numRows), nil
}

// EmptyRecord returns a record with the schema and no rows.
func EmptyRecord(mem *memory.GoAllocator, schema *arrow.Schema) arrow.Record {
	bldr := array.NewRecordBuilder(mem, schema)
	defer bldr.Release()
	return bldr.NewRecord()
}
