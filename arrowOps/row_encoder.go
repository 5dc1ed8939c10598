package arrowops

import (
	"encoding/json"
	"fmt"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/linkedin/goavro/v2"
)

// RowEncoder serializes single rows of a record into avro binary. Two rows
// encode to the same bytes exactly when their values are equal, which
// makes the encoding usable as a row identity.
type RowEncoder struct {
	codec     *goavro.Codec
	columns   []int
	avroTypes []string
	fieldKeys []string
	native    map[string]interface{}
}

func NewRowEncoder(schema *arrow.Schema, columns ...string) (*RowEncoder, error) {
	var columnIdxs []int
	if len(columns) == 0 {
		for i := 0; i < schema.NumFields(); i++ {
			columnIdxs = append(columnIdxs, i)
		}
	} else {
		for _, column := range columns {
			idxs := schema.FieldIndices(column)
			if len(idxs) == 0 {
				return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("column name: %s", column)), ErrColumnNotFound)
			}
			columnIdxs = append(columnIdxs, idxs...)
		}
	}

	type avroField struct {
		Name string   `json:"name"`
		Type []string `json:"type"`
	}
	type avroSchemaTemplate struct {
		Type   string      `json:"type"`
		Name   string      `json:"name"`
		Fields []avroField `json:"fields"`
	}

	avroSchema := avroSchemaTemplate{
		Type:   "record",
		Name:   "row",
		Fields: make([]avroField, 0, len(columnIdxs)),
	}
	avroTypes := make([]string, len(columnIdxs))
	fieldKeys := make([]string, len(columnIdxs))
	for i, idx := range columnIdxs {
		avroType, err := ArrowToAvroType(schema.Field(idx).Type)
		if err != nil {
			return nil, err
		}
		avroTypes[i] = avroType
		fieldKeys[i] = fmt.Sprintf("f%d", i)
		avroSchema.Fields = append(avroSchema.Fields, avroField{
			Name: fieldKeys[i],
			Type: []string{"null", avroType},
		})
	}

	codecData, err := json.Marshal(avroSchema)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	codec, err := goavro.NewCodec(string(codecData))
	if err != nil {
		return nil, errs.Wrap(err)
	}

	return &RowEncoder{
		codec:     codec,
		columns:   columnIdxs,
		avroTypes: avroTypes,
		fieldKeys: fieldKeys,
		native:    make(map[string]interface{}, len(columnIdxs)),
	}, nil
}

// Encode appends the avro encoding of the row to buf.
func (obj *RowEncoder) Encode(record arrow.Record, row int, buf []byte) ([]byte, error) {
	for i, colIdx := range obj.columns {
		col := record.Column(colIdx)
		if col.IsNull(row) {
			obj.native[obj.fieldKeys[i]] = nil
			continue
		}
		val, err := ArrowArrayValueToAvroValue(col, row)
		if err != nil {
			return nil, err
		}
		obj.native[obj.fieldKeys[i]] = goavro.Union(obj.avroTypes[i], val)
	}

	data, err := obj.codec.BinaryFromNative(buf, obj.native)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return data, nil
}

func ArrowArrayValueToAvroValue(arr arrow.Array, idx int) (interface{}, error) {
	switch arr.DataType().ID() {
	case arrow.BOOL:
		return arr.(*array.Boolean).Value(idx), nil
	case arrow.INT8:
		return int64(arr.(*array.Int8).Value(idx)), nil
	case arrow.INT16:
		return int64(arr.(*array.Int16).Value(idx)), nil
	case arrow.INT32:
		return int64(arr.(*array.Int32).Value(idx)), nil
	case arrow.INT64:
		return arr.(*array.Int64).Value(idx), nil
	case arrow.UINT8:
		return int64(arr.(*array.Uint8).Value(idx)), nil
	case arrow.UINT16:
		return int64(arr.(*array.Uint16).Value(idx)), nil
	case arrow.UINT32:
		return int64(arr.(*array.Uint32).Value(idx)), nil
	case arrow.UINT64:
		return int64(arr.(*array.Uint64).Value(idx)), nil
	case arrow.FLOAT32:
		return float64(arr.(*array.Float32).Value(idx)), nil
	case arrow.FLOAT64:
		return arr.(*array.Float64).Value(idx), nil
	case arrow.STRING:
		return arr.(*array.String).Value(idx), nil
	case arrow.BINARY:
		return arr.(*array.Binary).Value(idx), nil
	case arrow.DATE32:
		return int64(arr.(*array.Date32).Value(idx)), nil
	case arrow.DATE64:
		return int64(arr.(*array.Date64).Value(idx)), nil
	case arrow.TIMESTAMP:
		return int64(arr.(*array.Timestamp).Value(idx)), nil
	case arrow.DURATION:
		return int64(arr.(*array.Duration).Value(idx)), nil
	default:
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("avro value of type %s", arr.DataType().Name())), ErrUnsupportedDataType)
	}
}

func ArrowToAvroType(arrowType arrow.DataType) (string, error) {
	switch arrowType.ID() {
	case arrow.BOOL:
		return "boolean", nil
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		return "long", nil
	case arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return "long", nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return "double", nil
	case arrow.STRING:
		return "string", nil
	case arrow.BINARY:
		return "bytes", nil
	case arrow.DATE32, arrow.DATE64:
		return "long", nil
	case arrow.TIMESTAMP:
		return "long", nil
	case arrow.DURATION:
		return "long", nil
	default:
		return "", errs.Wrap(errs.NewStackError(fmt.Errorf("avro type of %s", arrowType.Name())), ErrUnsupportedDataType)
	}
}
