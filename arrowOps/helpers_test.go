package arrowops

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func mockSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: "a", Type: arrow.PrimitiveTypes.Uint32},
			{Name: "b", Type: arrow.PrimitiveTypes.Float32},
			{Name: "c", Type: arrow.BinaryTypes.String},
		}, nil)
}

func mockData(mem *memory.GoAllocator, size int, method string) arrow.Record {
	rb := array.NewRecordBuilder(mem, mockSchema())
	defer rb.Release()

	for i := 0; i < size; i++ {
		value := i
		if method == "descending" {
			value = size - i - 1
		}
		rb.Field(0).(*array.Uint32Builder).Append(uint32(value))
		rb.Field(1).(*array.Float32Builder).Append(float32(value))
		rb.Field(2).(*array.StringBuilder).Append(fmt.Sprintf("s%d", value))
	}

	return rb.NewRecord()
}

func stringColumn(rec arrow.Record, name string) []string {
	idxs := rec.Schema().FieldIndices(name)
	if len(idxs) != 1 {
		return nil
	}
	col := rec.Column(idxs[0]).(*array.String)
	values := make([]string, col.Len())
	for i := 0; i < col.Len(); i++ {
		values[i] = col.Value(i)
	}
	return values
}
