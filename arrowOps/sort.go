package arrowops

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

type compareRows func(i, j int) int

/*
* Sorts the rows of the record by the columns, the first column being the
* most significant. Nulls sort after every value and rows that compare
* equal keep their order.
 */
func SortRecord(mem *memory.GoAllocator, record arrow.Record, columns ...string) (arrow.Record, error) {
	indices, err := SortIndices(record, columns...)
	if err != nil {
		return nil, err
	}
	return TakeRecordIndices(mem, record, indices)
}

// SortIndices returns the row order SortRecord takes the rows in.
func SortIndices(record arrow.Record, columns ...string) ([]uint32, error) {
	compares := make([]compareRows, len(columns))
	for idx, column := range columns {
		columnIndexes := record.Schema().FieldIndices(column)
		if len(columnIndexes) == 0 {
			return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("sort column %s", column)), ErrColumnNotFound)
		}
		compare, err := compareFunc(record.Column(columnIndexes[0]))
		if err != nil {
			return nil, err
		}
		compares[idx] = compare
	}

	indices := make([]uint32, record.NumRows())
	for i := range indices {
		indices[i] = uint32(i)
	}
	slices.SortStableFunc(indices, func(a, b uint32) int {
		for _, compare := range compares {
			if n := compare(int(a), int(b)); n != 0 {
				return n
			}
		}
		return 0
	})
	return indices, nil
}

func compareValues[E cmp.Ordered](arr valueArray[E]) compareRows {
	return func(i, j int) int {
		iNull, jNull := arr.IsNull(i), arr.IsNull(j)
		switch {
		case iNull && jNull:
			return 0
		case iNull:
			return 1
		case jNull:
			return -1
		}
		return cmp.Compare(arr.Value(i), arr.Value(j))
	}
}

func compareBools(arr *array.Boolean) compareRows {
	asInt := func(i int) int {
		if arr.Value(i) {
			return 1
		}
		return 0
	}
	return func(i, j int) int {
		iNull, jNull := arr.IsNull(i), arr.IsNull(j)
		switch {
		case iNull && jNull:
			return 0
		case iNull:
			return 1
		case jNull:
			return -1
		}
		return cmp.Compare(asInt(i), asInt(j))
	}
}

func compareFunc(arr arrow.Array) (compareRows, error) {
	switch typedArr := arr.(type) {
	case *array.Int8:
		return compareValues[int8](typedArr), nil
	case *array.Int16:
		return compareValues[int16](typedArr), nil
	case *array.Int32:
		return compareValues[int32](typedArr), nil
	case *array.Int64:
		return compareValues[int64](typedArr), nil
	case *array.Uint8:
		return compareValues[uint8](typedArr), nil
	case *array.Uint16:
		return compareValues[uint16](typedArr), nil
	case *array.Uint32:
		return compareValues[uint32](typedArr), nil
	case *array.Uint64:
		return compareValues[uint64](typedArr), nil
	case *array.Float32:
		return compareValues[float32](typedArr), nil
	case *array.Float64:
		return compareValues[float64](typedArr), nil
	case *array.String:
		return compareValues[string](typedArr), nil
	case *array.Timestamp:
		return compareValues[arrow.Timestamp](typedArr), nil
	case *array.Boolean:
		return compareBools(typedArr), nil
	default:
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("sorting %s", arr.DataType().Name())), ErrUnsupportedDataType)
	}
}
