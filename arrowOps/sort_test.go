package arrowops

import (
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortRecord(t *testing.T) {
	mem := memory.NewGoAllocator()

	data := distinctTestRecord(mem)
	defer data.Release()

	testCases := []struct {
		caseName    string
		columns     []string
		expectedTs  []int64
		expectedErr error
	}{
		{caseName: "no columns", columns: nil, expectedTs: []int64{1, 2, 3, 4, 5, 6}},
		{caseName: "user with nulls last", columns: []string{"user_id"}, expectedTs: []int64{1, 2, 4, 3, 6, 5}},
		{caseName: "level then user", columns: []string{"level", "user_id"}, expectedTs: []int64{1, 2, 5, 4, 3, 6}},
		{caseName: "user then level", columns: []string{"user_id", "level"}, expectedTs: []int64{1, 2, 4, 3, 6, 5}},
		{caseName: "missing column", columns: []string{"nope"}, expectedErr: ErrColumnNotFound},
	}

	for _, testCase := range testCases {
		t.Run(testCase.caseName, func(t *testing.T) {
			result, err := SortRecord(mem, data, testCase.columns...)
			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)
				return
			}
			require.NoError(t, err)
			defer result.Release()

			assert.Equal(t, data.NumRows(), result.NumRows())
			assert.Equal(t, testCase.expectedTs, result.Column(2).(*array.Int64).Int64Values())
		})
	}
}

func TestSortRecordTimestamps(t *testing.T) {
	mem := memory.NewGoAllocator()
	tsType := &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}

	rb := array.NewRecordBuilder(mem, arrow.NewSchema(
		[]arrow.Field{
			{Name: "start_time", Type: tsType, Nullable: true},
			{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		}, nil))
	defer rb.Release()
	rb.Field(0).(*array.TimestampBuilder).AppendValues(
		[]arrow.Timestamp{300, 0, 100, 100},
		[]bool{true, false, true, true},
	)
	rb.Field(1).(*array.Int64Builder).AppendValues([]int64{1, 2, 3, 4}, nil)
	rec := rb.NewRecord()
	defer rec.Release()

	indices, err := SortIndices(rec, "start_time")
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3, 0, 1}, indices)
}

func TestSortRecordUnsupportedType(t *testing.T) {
	mem := memory.NewGoAllocator()

	rb := array.NewRecordBuilder(mem, arrow.NewSchema(
		[]arrow.Field{{Name: "data", Type: arrow.BinaryTypes.Binary, Nullable: true}}, nil))
	defer rb.Release()
	rb.Field(0).(*array.BinaryBuilder).AppendValues([][]byte{[]byte("a")}, nil)
	rec := rb.NewRecord()
	defer rec.Release()

	_, err := SortIndices(rec, "data")
	assert.ErrorIs(t, err, ErrUnsupportedDataType)
}
