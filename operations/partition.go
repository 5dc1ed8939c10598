package operations

import (
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/alekLukanen/SparkifyLake/elements"
)

/*
* Returns an arry of partition arrays for each partitioned column. They are in the order
* in which the columns were passed in.
 */
func PartitionColumns(allocator *memory.GoAllocator, tuples arrow.Record, columns []elements.ColumnPartition) ([]arrow.Array, error) {
	partitionedColumns := make([]arrow.Array, 0, len(columns))
	for _, column := range columns {
		partitionFunc := column.Options().PartitionFunc()
		partitionedColumn, err := partitionFunc(allocator, tuples, column.Name(), column.Options())
		if err != nil {
			for _, partArr := range partitionedColumns {
				partArr.Release()
			}
			return nil, err
		}
		partitionedColumns = append(partitionedColumns, partitionedColumn)
	}

	return partitionedColumns, nil
}

/*
* Builds the Hive partition path of every row by joining the segments of the
* partition columns, for example "year=2018/month=11". Tables without
* partition columns get an empty key for every row.
 */
func PartitionKeys(allocator *memory.GoAllocator, tuples arrow.Record, columns []elements.ColumnPartition) (*array.String, error) {
	partitionedColumns, err := PartitionColumns(allocator, tuples, columns)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, partArr := range partitionedColumns {
			partArr.Release()
		}
	}()

	keys := make([]string, tuples.NumRows())
	segments := make([]string, len(partitionedColumns))
	for idx := int64(0); idx < tuples.NumRows(); idx++ {
		for colIdx, colParts := range partitionedColumns {
			segments[colIdx] = colParts.ValueStr(int(idx))
		}
		keys[idx] = strings.Join(segments, "/")
	}

	arrBuilder := array.NewStringBuilder(allocator)
	defer arrBuilder.Release()
	arrBuilder.AppendValues(keys, nil)

	return arrBuilder.NewStringArray(), nil
}

// BucketIndices returns the bucket of every row, all zero when the table is
// not bucketed.
func BucketIndices(allocator *memory.GoAllocator, tuples arrow.Record, bucket *elements.ColumnPartition) ([]uint32, error) {
	buckets := make([]uint32, tuples.NumRows())
	if bucket == nil {
		return buckets, nil
	}

	partitionFunc := bucket.Options().PartitionFunc()
	bucketArr, err := partitionFunc(allocator, tuples, bucket.Name(), bucket.Options())
	if err != nil {
		return nil, err
	}
	defer bucketArr.Release()

	bucketValues, ok := bucketArr.(*array.Uint32)
	if !ok {
		return nil, ErrSchemaMismatch
	}
	copy(buckets, bucketValues.Uint32Values())
	return buckets, nil
}
