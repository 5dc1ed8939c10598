package arrowops

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	parquetFileUtils "github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
)

type ParquetFile struct {
	Key     string `json:"key"`
	NumRows int64  `json:"num_rows"`
	Size    int64  `json:"size"`
}

var compressionCodecs = map[string]compress.Compression{
	"none":         compress.Codecs.Uncompressed,
	"uncompressed": compress.Codecs.Uncompressed,
	"snappy":       compress.Codecs.Snappy,
	"gzip":         compress.Codecs.Gzip,
	"zstd":         compress.Codecs.Zstd,
	"brotli":       compress.Codecs.Brotli,
}

// CompressionCodec resolves a codec name such as "snappy".
func CompressionCodec(name string) (compress.Compression, error) {
	codec, ok := compressionCodecs[strings.ToLower(name)]
	if !ok {
		return compress.Codecs.Uncompressed, errs.Wrap(errs.NewStackError(fmt.Errorf("compression codec %s", name)), ErrUnsupportedDataType)
	}
	return codec, nil
}

// CompressionExtension is the file name part Spark puts before
// ".parquet", for example "snappy".
func CompressionExtension(codec compress.Compression) string {
	switch codec {
	case compress.Codecs.Snappy:
		return "snappy"
	case compress.Codecs.Gzip:
		return "gz"
	case compress.Codecs.Zstd:
		return "zstd"
	case compress.Codecs.Brotli:
		return "br"
	default:
		return ""
	}
}

func WriteRecordToParquet(ctx context.Context, mem *memory.GoAllocator, record arrow.Record, w io.Writer, codec compress.Compression) error {

	parquetWriteProps := parquet.NewWriterProperties(
		parquet.WithStats(true),
		parquet.WithCompression(codec),
		parquet.WithAllocator(mem),
	)
	arrowWriteProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	parquetFileWriter, err := pqarrow.NewFileWriter(record.Schema(), w, parquetWriteProps, arrowWriteProps)
	if err != nil {
		return errs.Wrap(err)
	}

	err = parquetFileWriter.Write(record)
	if err != nil {
		parquetFileWriter.Close()
		return errs.Wrap(err)
	}
	if err := parquetFileWriter.Close(); err != nil {
		return errs.Wrap(err)
	}
	return nil
}

// EncodeParquet returns the parquet file bytes of the record.
func EncodeParquet(ctx context.Context, mem *memory.GoAllocator, record arrow.Record, codec compress.Compression) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := WriteRecordToParquet(ctx, mem, record, buf, codec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ReadParquet(ctx context.Context, mem *memory.GoAllocator, data []byte) ([]arrow.Record, error) {

	parquetFileReader, err := parquetFileUtils.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer parquetFileReader.Close()

	parquetReadProps := pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: 1 << 20, // 1MB
	}
	arrowFileReader, err := pqarrow.NewFileReader(parquetFileReader, parquetReadProps, mem)
	if err != nil {
		return nil, errs.Wrap(err)
	}

	recordReader, err := arrowFileReader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer recordReader.Release()

	records := make([]arrow.Record, 0)
	for recordReader.Next() {
		rec := recordReader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := recordReader.Err(); err != nil && err != io.EOF {
		for _, rec := range records {
			rec.Release()
		}
		return nil, errs.Wrap(err)
	}

	return records, nil
}
