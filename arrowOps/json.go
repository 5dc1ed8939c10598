package arrowops

import (
	"io"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

const defaultJSONChunkSize = 4096

/*
* Decode line-delimited JSON objects into a single record with the
* provided schema. Keys not in the schema are skipped and missing keys
* are read as nulls.
 */
func ReadJSONRecord(mem *memory.GoAllocator, r io.Reader, schema *arrow.Schema) (arrow.Record, error) {
	jsonReader := array.NewJSONReader(
		r,
		schema,
		array.WithAllocator(mem),
		array.WithChunk(defaultJSONChunkSize),
	)
	defer jsonReader.Release()

	records := make([]arrow.Record, 0)
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()
	for jsonReader.Next() {
		rec := jsonReader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := jsonReader.Err(); err != nil && err != io.EOF {
		return nil, errs.Wrap(err)
	}

	if len(records) == 0 {
		return EmptyRecord(mem, schema), nil
	}
	if len(records) == 1 {
		records[0].Retain()
		return records[0], nil
	}
	return ConcatenateRecords(mem, records...)
}
