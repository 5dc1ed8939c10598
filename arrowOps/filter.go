package arrowops

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// FilterRecord keeps the rows for which keep returns true.
func FilterRecord(mem *memory.GoAllocator, record arrow.Record, keep func(row int) bool) (arrow.Record, error) {
	indices := make([]uint32, 0, record.NumRows())
	for i := 0; i < int(record.NumRows()); i++ {
		if keep(i) {
			indices = append(indices, uint32(i))
		}
	}
	return TakeRecordIndices(mem, record, indices)
}
