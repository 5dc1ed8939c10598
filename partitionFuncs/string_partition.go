package partitionFuncs

import (
	"fmt"
	"hash"
	"hash/fnv"
	"math"

	"github.com/alekLukanen/SparkifyLake/elements"
	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

type StringHashMethod string

const (
	MethodFNVHash StringHashMethod = "fnv-hash"
)

type StringHashPartitonOptions struct {
	PartitionCount int
	Method         StringHashMethod
}

func NewStringHashPartitionOptions(partitionCount int, method StringHashMethod) *StringHashPartitonOptions {
	return &StringHashPartitonOptions{
		PartitionCount: partitionCount,
		Method:         method,
	}
}

func (obj *StringHashPartitonOptions) PartitionType() string {
	return "string_hash"
}

func (obj *StringHashPartitonOptions) PartitionFunc() elements.PartitionFunc {
	switch obj.Method {
	case MethodFNVHash:
		return StringFNVHashPartition
	default:
		return nil
	}
}

func (obj *StringHashPartitonOptions) Validate() error {
	if obj.PartitionCount < 1 || obj.PartitionCount > int(math.MaxUint32) {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("partition count of %d is out of bounds [1,%d]", obj.PartitionCount, int(math.MaxUint32))), ErrValidation)
	}
	if obj.PartitionFunc() == nil {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("method %s not implemented", obj.Method)), ErrValidation)
	}

	return nil
}

// StringFNVHashPartition returns the bucket index of every row. Null
// values are placed in bucket 0.
func StringFNVHashPartition(mem *memory.GoAllocator, record arrow.Record, column string, options elements.IPartitionOptions) (arrow.Array, error) {

	strOptions, ok := options.(*StringHashPartitonOptions)
	if !ok {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("column %s expects string hash options", column)), ErrInvalidPartitionOptions)
	}

	hasher := fnv.New32()

	arrayBuilder := array.NewUint32Builder(mem)
	defer arrayBuilder.Release()

	arr, err := partitionColumn(record, column)
	if err != nil {
		return nil, err
	}

	arrData := make([]uint32, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		partIdx, err := FNVHash(arr, i, hasher, strOptions)
		if err != nil {
			return nil, errs.Wrap(err, fmt.Errorf("column: %s, array index: %d", column, i))
		}
		hasher.Reset()
		arrData[i] = partIdx
	}

	arrayBuilder.AppendValues(arrData, nil)

	return arrayBuilder.NewArray(), nil
}

func FNVHash(arr arrow.Array, idx int, hasher hash.Hash32, options *StringHashPartitonOptions) (uint32, error) {

	switch arr.DataType().ID() {
	case arrow.STRING:
		value := arr.(*array.String).Value(idx)
		valueBytes := []byte(value)
		rn, err := hasher.Write(valueBytes)
		if err != nil {
			return 0, errs.Wrap(errs.NewStackError(fmt.Errorf("hashing row %d", idx)), err)
		} else if rn != len(valueBytes) {
			return 0, errs.NewStackError(fmt.Errorf("assert issue: not all data written in hash"))
		}
		part := findInterval(uint32(options.PartitionCount), hasher.Sum32())
		return part, nil
	default:
		return 0, errs.Wrap(errs.NewStackError(fmt.Errorf("type %s", arr.DataType().Name())), ErrStringHashTypeNotImplemented)
	}

}

func findInterval(n uint32, x uint32) uint32 {

	maxVal := uint32(math.MaxUint32)
	step := maxVal / n
	intervalID := uint32(x) / step

	if intervalID > n-1 {
		intervalID = n - 1
	}

	return intervalID

}
