package arrowops

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

/*
* Removes duplicate rows keeping the first occurrence of each row. When
* columns are given only those columns decide whether two rows are
* duplicates, all columns are kept in the result.
 */
func DistinctRecord(mem *memory.GoAllocator, record arrow.Record, columns ...string) (arrow.Record, error) {
	indices, _, err := DistinctIndices(record, columns...)
	if err != nil {
		return nil, err
	}
	return TakeRecordIndices(mem, record, indices)
}

// DistinctIndices returns the index of the first occurrence of every
// distinct row and, for every row, the position of its group in that list.
func DistinctIndices(record arrow.Record, columns ...string) ([]uint32, []uint32, error) {
	encoder, err := NewRowEncoder(record.Schema(), columns...)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]uint32, record.NumRows())
	firstRows := make([]uint32, 0, record.NumRows())
	groups := make([]uint32, record.NumRows())

	var buf []byte
	for i := 0; i < int(record.NumRows()); i++ {
		buf, err = encoder.Encode(record, i, buf[:0])
		if err != nil {
			return nil, nil, err
		}
		group, ok := seen[string(buf)]
		if !ok {
			group = uint32(len(firstRows))
			seen[string(buf)] = group
			firstRows = append(firstRows, uint32(i))
		}
		groups[i] = group
	}

	return firstRows, groups, nil
}
