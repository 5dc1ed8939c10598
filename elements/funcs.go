package elements

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// PartitionFunc assigns every row of the record to a partition based on
// the named column. The element type of the returned array depends on the
// partition kind: path segments for value partitions, bucket indexes for
// hash partitions.
type PartitionFunc func(*memory.GoAllocator, arrow.Record, string, IPartitionOptions) (arrow.Array, error)
