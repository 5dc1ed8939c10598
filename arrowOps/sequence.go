package arrowops

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// AppendSequenceColumn adds an int64 column numbering the rows from start.
// The values are unique and increasing within the record.
func AppendSequenceColumn(mem *memory.GoAllocator, record arrow.Record, name string, start int64) (arrow.Record, error) {
	bldr := array.NewInt64Builder(mem)
	defer bldr.Release()
	bldr.Reserve(int(record.NumRows()))
	for i := int64(0); i < record.NumRows(); i++ {
		bldr.Append(start + i)
	}
	ids := bldr.NewArray()
	defer ids.Release()

	return AppendColumn(record, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64}, ids)
}
