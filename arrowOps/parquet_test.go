package arrowops

import (
	"context"
	"errors"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet/compress"
)

func TestWritingAndReadingParquet(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewGoAllocator()

	data := mockData(mem, 10, "ascending")
	defer data.Release()

	for _, codecName := range []string{"snappy", "gzip", "none"} {
		t.Run(codecName, func(t *testing.T) {
			codec, err := CompressionCodec(codecName)
			if err != nil {
				t.Fatalf("CompressionCodec failed: %v", err)
			}

			fileData, err := EncodeParquet(ctx, mem, data, codec)
			if err != nil {
				t.Fatalf("EncodeParquet failed: %v", err)
			}

			readRecords, err := ReadParquet(ctx, mem, fileData)
			if err != nil {
				t.Fatalf("ReadParquet failed: %v", err)
			}
			defer func() {
				for _, rec := range readRecords {
					rec.Release()
				}
			}()
			if len(readRecords) != 1 {
				t.Fatalf("ReadParquet failed: expected 1 record, got %d", len(readRecords))
			}
			if readRecords[0].NumRows() != 10 {
				t.Fatalf("ReadParquet failed: expected 10 rows, got %d", readRecords[0].NumRows())
			}

			if !RecordsEqual(data, readRecords[0]) {
				t.Log("Expected:", data)
				t.Log("Got:", readRecords[0])
				t.Errorf("ReadParquet failed: records are not equal")
			}
		})
	}
}

func TestCompressionCodec(t *testing.T) {
	testCases := []struct {
		caseName          string
		name              string
		expectedExtension string
		expectedErr       error
	}{
		{caseName: "snappy", name: "snappy", expectedExtension: "snappy"},
		{caseName: "upper case", name: "GZIP", expectedExtension: "gz"},
		{caseName: "uncompressed", name: "none", expectedExtension: ""},
		{caseName: "unknown", name: "lzo", expectedErr: ErrUnsupportedDataType},
		{caseName: "lz4 not supported by the writer", name: "lz4", expectedErr: ErrUnsupportedDataType},
	}

	for _, testCase := range testCases {
		t.Run(testCase.caseName, func(t *testing.T) {
			codec, err := CompressionCodec(testCase.name)
			if !errors.Is(err, testCase.expectedErr) {
				t.Fatalf("expected error %v, got %v", testCase.expectedErr, err)
			}
			if err != nil {
				if codec != compress.Codecs.Uncompressed {
					t.Errorf("expected the uncompressed codec on error")
				}
				return
			}
			if ext := CompressionExtension(codec); ext != testCase.expectedExtension {
				t.Errorf("expected extension %q, got %q", testCase.expectedExtension, ext)
			}
		})
	}
}
