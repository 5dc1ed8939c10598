package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet/compress"

	arrowops "github.com/alekLukanen/SparkifyLake/arrowOps"
	"github.com/alekLukanen/SparkifyLake/elements"
	"github.com/alekLukanen/SparkifyLake/storage"
)

type SaveMode string

const (
	SaveModeOverwrite     SaveMode = "overwrite"
	SaveModeAppend        SaveMode = "append"
	SaveModeErrorIfExists SaveMode = "errorifexists"
	SaveModeIgnore        SaveMode = "ignore"
)

func ParseSaveMode(mode string) (SaveMode, error) {
	switch SaveMode(strings.ToLower(strings.TrimSpace(mode))) {
	case SaveModeOverwrite:
		return SaveModeOverwrite, nil
	case SaveModeAppend:
		return SaveModeAppend, nil
	case SaveModeErrorIfExists, "error":
		return SaveModeErrorIfExists, nil
	case SaveModeIgnore:
		return SaveModeIgnore, nil
	default:
		return "", errs.Wrap(errs.NewStackError(fmt.Errorf("mode %s", mode)), ErrInvalidSaveMode)
	}
}

type TableWriterOptions struct {
	Mode SaveMode
	// MaxRecordsPerFile splits a partition into several files, 0 for no
	// limit.
	MaxRecordsPerFile int
	Compression       string
}

type TableWriteResult struct {
	TableName  string
	NumRows    int64
	NumFiles   int
	Partitions int
	Skipped    bool
}

type TableWriter struct {
	logger          *slog.Logger
	mem             *memory.GoAllocator
	manifestStorage storage.IManifestStorage

	runId   string
	codec   compress.Compression
	options TableWriterOptions
	now     func() time.Time
}

func NewTableWriter(
	ctx context.Context,
	logger *slog.Logger,
	mem *memory.GoAllocator,
	manifestStorage storage.IManifestStorage,
	runId string,
	options TableWriterOptions,
) (*TableWriter, error) {
	if options.Mode == "" {
		options.Mode = SaveModeOverwrite
	}
	if _, err := ParseSaveMode(string(options.Mode)); err != nil {
		return nil, err
	}
	if options.Compression == "" {
		options.Compression = "snappy"
	}
	codec, err := arrowops.CompressionCodec(options.Compression)
	if err != nil {
		return nil, err
	}
	if options.MaxRecordsPerFile < 0 {
		options.MaxRecordsPerFile = 0
	}

	return &TableWriter{
		logger:          logger,
		mem:             mem,
		manifestStorage: manifestStorage,
		runId:           runId,
		codec:           codec,
		options:         options,
		now:             time.Now,
	}, nil
}

type partitionGroup struct {
	key     string
	bucket  int
	indices []uint32
}

/*
* Writes the record as the table's data files and manifest. Rows are grouped
* into one directory per partition key, then into one file set per bucket,
* and each set is split into files of at most MaxRecordsPerFile rows. The
* partition columns are left out of the files.
 */
func (obj *TableWriter) WriteTable(ctx context.Context, table *elements.Table, record arrow.Record) (TableWriteResult, error) {
	result := TableWriteResult{TableName: table.TableName()}

	if err := table.IsValid(); err != nil {
		return result, errs.Wrap(errs.NewStackError(fmt.Errorf("table %s", table.TableName())), err)
	}
	tableRecord, err := SelectTableColumns(record, table)
	if err != nil {
		return result, err
	}
	defer tableRecord.Release()

	proceed, err := obj.prepareTable(ctx, table.TableName())
	if err != nil {
		return result, err
	}
	if !proceed {
		obj.logger.Info("table exists, skipping write", slog.String("table", table.TableName()))
		result.Skipped = true
		return result, nil
	}

	groups, err := obj.groupRows(tableRecord, table)
	if err != nil {
		return result, err
	}

	builder := storage.NewTableManifestBuilder(
		table.TableName(),
		obj.runId,
		string(obj.options.Mode),
		table.PartitionColumnNames(),
		obj.now(),
	)
	partitionKeys := make(map[string]struct{})
	for _, group := range groups {
		if err := obj.writeGroup(ctx, table, tableRecord, group, builder); err != nil {
			return result, errs.Wrap(err, fmt.Errorf("failed writing table %s partition %q", table.TableName(), group.key))
		}
		partitionKeys[group.key] = struct{}{}
	}

	manifest := builder.Manifest()
	if err := obj.manifestStorage.PutTableManifest(ctx, manifest); err != nil {
		return result, errs.Wrap(err, fmt.Errorf("failed writing manifest of table %s", table.TableName()))
	}

	result.NumRows = manifest.NumRows
	result.NumFiles = len(manifest.Files)
	result.Partitions = len(partitionKeys)
	obj.logger.Info(
		"wrote table",
		slog.String("table", table.TableName()),
		slog.String("mode", string(obj.options.Mode)),
		slog.Int64("rows", result.NumRows),
		slog.Int("files", result.NumFiles),
		slog.Int("partitions", result.Partitions),
	)
	return result, nil
}

// prepareTable applies the save mode and reports whether the write goes
// ahead.
func (obj *TableWriter) prepareTable(ctx context.Context, tableName string) (bool, error) {
	switch obj.options.Mode {
	case SaveModeAppend:
		return true, nil
	case SaveModeOverwrite:
		deleted, err := obj.manifestStorage.ClearTable(ctx, tableName)
		if err != nil {
			return false, err
		}
		if deleted > 0 {
			obj.logger.Info("cleared table", slog.String("table", tableName), slog.Int("objects", deleted))
		}
		return true, nil
	}

	keys, err := obj.manifestStorage.ListTableObjects(ctx, tableName)
	if err != nil {
		return false, err
	}
	if len(keys) == 0 {
		return true, nil
	}
	if obj.options.Mode == SaveModeIgnore {
		return false, nil
	}
	return false, errs.Wrap(errs.NewStackError(fmt.Errorf("table %s has %d objects", tableName, len(keys))), ErrTableExists)
}

func (obj *TableWriter) groupRows(record arrow.Record, table *elements.Table) ([]*partitionGroup, error) {
	partitionKeys, err := PartitionKeys(obj.mem, record, table.ColumnPartitions())
	if err != nil {
		return nil, err
	}
	defer partitionKeys.Release()

	buckets, err := BucketIndices(obj.mem, record, table.BucketPartition())
	if err != nil {
		return nil, err
	}

	groupsByKey := make(map[string]*partitionGroup)
	groups := make([]*partitionGroup, 0)
	for i := 0; i < int(record.NumRows()); i++ {
		key := partitionKeys.Value(i)
		groupKey := fmt.Sprintf("%s#%d", key, buckets[i])
		group, ok := groupsByKey[groupKey]
		if !ok {
			group = &partitionGroup{key: key, bucket: int(buckets[i])}
			groupsByKey[groupKey] = group
			groups = append(groups, group)
		}
		group.indices = append(group.indices, uint32(i))
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].key != groups[j].key {
			return groups[i].key < groups[j].key
		}
		return groups[i].bucket < groups[j].bucket
	})
	return groups, nil
}

func (obj *TableWriter) writeGroup(
	ctx context.Context,
	table *elements.Table,
	record arrow.Record,
	group *partitionGroup,
	builder *storage.TableManifestBuilder,
) error {
	taken, err := arrowops.TakeRecordIndices(obj.mem, record, group.indices)
	if err != nil {
		return err
	}
	if sortColumns := table.SortColumns(); len(sortColumns) > 0 {
		sorted, err := arrowops.SortRecord(obj.mem, taken, sortColumns...)
		taken.Release()
		if err != nil {
			return err
		}
		taken = sorted
	}
	defer taken.Release()

	fileRecord := arrowops.DropColumns(taken, table.PartitionColumnNames())
	defer fileRecord.Release()

	fileRows := fileRecord.NumRows()
	if obj.options.MaxRecordsPerFile > 0 {
		fileRows = int64(obj.options.MaxRecordsPerFile)
	}

	for start := int64(0); start < fileRecord.NumRows(); start += fileRows {
		end := min(start+fileRows, fileRecord.NumRows())
		if err := obj.writeFile(ctx, fileRecord.NewSlice(start, end), group, builder); err != nil {
			return err
		}
	}
	return nil
}

func (obj *TableWriter) writeFile(
	ctx context.Context,
	slice arrow.Record,
	group *partitionGroup,
	builder *storage.TableManifestBuilder,
) error {
	defer slice.Release()

	data, err := arrowops.EncodeParquet(ctx, obj.mem, slice, obj.codec)
	if err != nil {
		return err
	}

	key := builder.NextFileKey(group.key, group.bucket, arrowops.CompressionExtension(obj.codec))
	if err := obj.manifestStorage.UploadTableFile(ctx, key, data); err != nil {
		return err
	}

	builder.AddFile(group.key, group.bucket, arrowops.ParquetFile{
		Key:     key,
		NumRows: slice.NumRows(),
		Size:    int64(len(data)),
	})
	return nil
}
