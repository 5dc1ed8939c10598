package arrowops

import (
	"fmt"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// TakeRecord builds a new record holding the rows at the given indices in
// the order the indices are listed.
func TakeRecord(mem *memory.GoAllocator, record arrow.Record, indices *array.Uint32) (arrow.Record, error) {
	record.Retain()
	defer record.Release()

	for i := 0; i < indices.Len(); i++ {
		if int64(indices.Value(i)) >= record.NumRows() {
			return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("index %d with %d rows", indices.Value(i), record.NumRows())), ErrIndexOutOfBounds)
		}
	}

	takenFields := make([]arrow.Array, record.NumCols())
	defer func() {
		for _, arr := range takenFields {
			if arr != nil {
				arr.Release()
			}
		}
	}()
	for i := 0; i < int(record.NumCols()); i++ {
		takenRows, err := TakeArray(mem, record.Column(i), indices)
		if err != nil {
			return nil, errs.Wrap(err, fmt.Errorf("column %s", record.ColumnName(i)))
		}
		takenFields[i] = takenRows
	}
	return array.NewRecord(record.Schema(), takenFields, int64(indices.Len())), nil
}

// TakeRecordIndices is TakeRecord for a plain index slice.
func TakeRecordIndices(mem *memory.GoAllocator, record arrow.Record, indices []uint32) (arrow.Record, error) {
	bldr := array.NewUint32Builder(mem)
	defer bldr.Release()
	bldr.AppendValues(indices, nil)
	indexArr := bldr.NewUint32Array()
	defer indexArr.Release()
	return TakeRecord(mem, record, indexArr)
}

func TakeArray(mem *memory.GoAllocator, arr arrow.Array, indices *array.Uint32) (arrow.Array, error) {
	switch arr.DataType().ID() {
	case arrow.BOOL:
		return takeNative[bool](arr.(*array.Boolean), array.NewBooleanBuilder(mem), indices), nil
	case arrow.INT8:
		return takeNative[int8](arr.(*array.Int8), array.NewInt8Builder(mem), indices), nil
	case arrow.INT16:
		return takeNative[int16](arr.(*array.Int16), array.NewInt16Builder(mem), indices), nil
	case arrow.INT32:
		return takeNative[int32](arr.(*array.Int32), array.NewInt32Builder(mem), indices), nil
	case arrow.INT64:
		return takeNative[int64](arr.(*array.Int64), array.NewInt64Builder(mem), indices), nil
	case arrow.UINT8:
		return takeNative[uint8](arr.(*array.Uint8), array.NewUint8Builder(mem), indices), nil
	case arrow.UINT16:
		return takeNative[uint16](arr.(*array.Uint16), array.NewUint16Builder(mem), indices), nil
	case arrow.UINT32:
		return takeNative[uint32](arr.(*array.Uint32), array.NewUint32Builder(mem), indices), nil
	case arrow.UINT64:
		return takeNative[uint64](arr.(*array.Uint64), array.NewUint64Builder(mem), indices), nil
	case arrow.FLOAT32:
		return takeNative[float32](arr.(*array.Float32), array.NewFloat32Builder(mem), indices), nil
	case arrow.FLOAT64:
		return takeNative[float64](arr.(*array.Float64), array.NewFloat64Builder(mem), indices), nil
	case arrow.STRING:
		return takeNative[string](arr.(*array.String), array.NewStringBuilder(mem), indices), nil
	case arrow.BINARY:
		return takeNative[[]byte](arr.(*array.Binary), array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary), indices), nil
	case arrow.DATE32:
		return takeNative[arrow.Date32](arr.(*array.Date32), array.NewDate32Builder(mem), indices), nil
	case arrow.DATE64:
		return takeNative[arrow.Date64](arr.(*array.Date64), array.NewDate64Builder(mem), indices), nil
	case arrow.TIMESTAMP:
		dtype := arr.DataType().(*arrow.TimestampType)
		return takeNative[arrow.Timestamp](arr.(*array.Timestamp), array.NewTimestampBuilder(mem, dtype), indices), nil
	case arrow.DURATION:
		dtype := arr.DataType().(*arrow.DurationType)
		return takeNative[arrow.Duration](arr.(*array.Duration), array.NewDurationBuilder(mem, dtype), indices), nil
	default:
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("take of type %s", arr.DataType().Name())), ErrUnsupportedDataType)
	}
}

func takeNative[T any, A valueArray[T], B valueBuilder[T]](arr A, b B, indices *array.Uint32) arrow.Array {
	defer b.Release()
	b.Reserve(indices.Len())
	for i := 0; i < indices.Len(); i++ {
		idx := int(indices.Value(i))
		if arr.IsNull(idx) {
			b.AppendNull()
			continue
		}
		b.Append(arr.Value(idx))
	}
	return b.NewArray()
}
