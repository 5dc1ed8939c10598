package partitionFuncs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alekLukanen/SparkifyLake/elements"
	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

const DefaultPartitionName = "__HIVE_DEFAULT_PARTITION__"

type ValuePartitionOptions struct{}

func NewValuePartitionOptions() *ValuePartitionOptions {
	return &ValuePartitionOptions{}
}

func (obj *ValuePartitionOptions) PartitionType() string {
	return "value"
}

func (obj *ValuePartitionOptions) PartitionFunc() elements.PartitionFunc {
	return ValuePartition
}

func (obj *ValuePartitionOptions) Validate() error {
	return nil
}

/*
* Partition the rows by the value of the column. The returned string array
* holds the Hive path segment of each row, for example "year=2018".
 */
func ValuePartition(mem *memory.GoAllocator, record arrow.Record, column string, options elements.IPartitionOptions) (arrow.Array, error) {
	if _, ok := options.(*ValuePartitionOptions); !ok {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("column %s expects value options", column)), ErrInvalidPartitionOptions)
	}

	arr, err := partitionColumn(record, column)
	if err != nil {
		return nil, err
	}

	arrayBuilder := array.NewStringBuilder(mem)
	defer arrayBuilder.Release()
	arrayBuilder.Reserve(arr.Len())

	prefix := EscapePathName(column) + "="
	for i := 0; i < arr.Len(); i++ {
		value, err := partitionValue(arr, i)
		if err != nil {
			return nil, errs.Wrap(err, fmt.Errorf("column: %s, array index: %d", column, i))
		}
		arrayBuilder.Append(prefix + value)
	}

	return arrayBuilder.NewArray(), nil
}

func partitionValue(arr arrow.Array, idx int) (string, error) {
	if arr.IsNull(idx) {
		return DefaultPartitionName, nil
	}

	switch arr.DataType().ID() {
	case arrow.STRING:
		value := arr.(*array.String).Value(idx)
		if value == "" {
			return DefaultPartitionName, nil
		}
		return EscapePathName(value), nil
	case arrow.BOOL:
		return strconv.FormatBool(arr.(*array.Boolean).Value(idx)), nil
	case arrow.INT8:
		return strconv.FormatInt(int64(arr.(*array.Int8).Value(idx)), 10), nil
	case arrow.INT16:
		return strconv.FormatInt(int64(arr.(*array.Int16).Value(idx)), 10), nil
	case arrow.INT32:
		return strconv.FormatInt(int64(arr.(*array.Int32).Value(idx)), 10), nil
	case arrow.INT64:
		return strconv.FormatInt(arr.(*array.Int64).Value(idx), 10), nil
	case arrow.UINT8:
		return strconv.FormatUint(uint64(arr.(*array.Uint8).Value(idx)), 10), nil
	case arrow.UINT16:
		return strconv.FormatUint(uint64(arr.(*array.Uint16).Value(idx)), 10), nil
	case arrow.UINT32:
		return strconv.FormatUint(uint64(arr.(*array.Uint32).Value(idx)), 10), nil
	case arrow.UINT64:
		return strconv.FormatUint(arr.(*array.Uint64).Value(idx), 10), nil
	default:
		return "", errs.Wrap(errs.NewStackError(fmt.Errorf("type %s", arr.DataType().Name())), ErrValueTypeNotImplemented)
	}
}

// EscapePathName percent-encodes the characters that may not appear in a
// partition directory name.
func EscapePathName(value string) string {
	var sb strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if needsEscaping(c) {
			fmt.Fprintf(&sb, "%%%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func needsEscaping(c byte) bool {
	if c < 0x20 || c == 0x7F {
		return true
	}
	switch c {
	case '"', '#', '%', '\'', '*', '/', ':', '=', '?', '\\', '{', '[', ']', '^':
		return true
	}
	return false
}
