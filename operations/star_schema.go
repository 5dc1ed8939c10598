package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"

	"github.com/alekLukanen/SparkifyLake/elements"
	"github.com/alekLukanen/SparkifyLake/partitionFuncs"
)

const (
	SongsTableName     = "songs"
	ArtistsTableName   = "artists"
	UsersTableName     = "users"
	TimeTableName      = "time"
	SongplaysTableName = "songplays"
)

type StarSchemaOptions struct {
	// BucketCount is the number of files the unpartitioned tables are
	// spread over.
	BucketCount int
	TimeZone    *time.Location
}

// StartTimeType is the type of start_time in the time and songplays tables.
func StartTimeType(loc *time.Location) *arrow.TimestampType {
	if loc == nil {
		loc = time.UTC
	}
	return &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: loc.String()}
}

func NewStarSchemaTables(options StarSchemaOptions) []*elements.Table {
	startTimeType := StartTimeType(options.TimeZone)

	songs := elements.NewTable(SongsTableName).
		AddColumns(
			elements.NewColumn("song_id", arrow.PrimitiveTypes.Int64),
			elements.NewColumn("title", arrow.BinaryTypes.String),
			elements.NewColumn("artist_id", arrow.BinaryTypes.String),
			elements.NewColumn("year", arrow.PrimitiveTypes.Int64),
			elements.NewColumn("duration", arrow.PrimitiveTypes.Float64),
		).
		AddColumnPartitions(
			elements.NewColumnPartition("year", partitionFuncs.NewValuePartitionOptions()),
			elements.NewColumnPartition("artist_id", partitionFuncs.NewValuePartitionOptions()),
		).
		SetSortColumns("song_id")

	artists := elements.NewTable(ArtistsTableName).
		AddColumns(
			elements.NewColumn("artist_id", arrow.BinaryTypes.String),
			elements.NewColumn("name", arrow.BinaryTypes.String),
			elements.NewColumn("location", arrow.BinaryTypes.String),
			elements.NewColumn("latitude", arrow.PrimitiveTypes.Float64),
			elements.NewColumn("longitude", arrow.PrimitiveTypes.Float64),
		).
		SetBucketPartition(
			elements.NewColumnPartition(
				"artist_id",
				partitionFuncs.NewStringHashPartitionOptions(options.BucketCount, partitionFuncs.MethodFNVHash),
			),
		).
		SetSortColumns("artist_id")

	users := elements.NewTable(UsersTableName).
		AddColumns(
			elements.NewColumn("user_id", arrow.BinaryTypes.String),
			elements.NewColumn("first_name", arrow.BinaryTypes.String),
			elements.NewColumn("last_name", arrow.BinaryTypes.String),
			elements.NewColumn("gender", arrow.BinaryTypes.String),
			elements.NewColumn("level", arrow.BinaryTypes.String),
		).
		SetBucketPartition(
			elements.NewColumnPartition(
				"user_id",
				partitionFuncs.NewStringHashPartitionOptions(options.BucketCount, partitionFuncs.MethodFNVHash),
			),
		).
		SetSortColumns("user_id", "level")

	timeTable := elements.NewTable(TimeTableName).
		AddColumns(
			elements.NewColumn("start_time", startTimeType),
			elements.NewColumn("hour", arrow.PrimitiveTypes.Int32),
			elements.NewColumn("day", arrow.PrimitiveTypes.Int32),
			elements.NewColumn("week", arrow.PrimitiveTypes.Int32),
			elements.NewColumn("month", arrow.PrimitiveTypes.Int32),
			elements.NewColumn("year", arrow.PrimitiveTypes.Int32),
			elements.NewColumn("weekday", arrow.PrimitiveTypes.Int32),
		).
		AddColumnPartitions(
			elements.NewColumnPartition("year", partitionFuncs.NewValuePartitionOptions()),
			elements.NewColumnPartition("month", partitionFuncs.NewValuePartitionOptions()),
		).
		SetSortColumns("start_time")

	songplays := elements.NewTable(SongplaysTableName).
		AddColumns(
			elements.NewColumn("songplay_id", arrow.PrimitiveTypes.Int64),
			elements.NewColumn("start_time", startTimeType),
			elements.NewColumn("user_id", arrow.BinaryTypes.String),
			elements.NewColumn("level", arrow.BinaryTypes.String),
			elements.NewColumn("song_id", arrow.PrimitiveTypes.Int64),
			elements.NewColumn("artist_id", arrow.BinaryTypes.String),
			elements.NewColumn("session_id", arrow.PrimitiveTypes.Int64),
			elements.NewColumn("location", arrow.BinaryTypes.String),
			elements.NewColumn("user_agent", arrow.BinaryTypes.String),
			elements.NewColumn("year", arrow.PrimitiveTypes.Int32),
			elements.NewColumn("month", arrow.PrimitiveTypes.Int32),
		).
		AddColumnPartitions(
			elements.NewColumnPartition("year", partitionFuncs.NewValuePartitionOptions()),
			elements.NewColumnPartition("month", partitionFuncs.NewValuePartitionOptions()),
		).
		SetSortColumns("start_time", "songplay_id")

	return []*elements.Table{songs, artists, users, timeTable, songplays}
}

// NewStarSchemaRegistry registers the songs, artists, users, time and
// songplays tables.
func NewStarSchemaRegistry(ctx context.Context, logger *slog.Logger, options StarSchemaOptions) (*TableRegistry, error) {
	registry := NewTableRegistry(ctx, logger)
	if err := registry.AddTables(NewStarSchemaTables(options)...); err != nil {
		return nil, err
	}
	return registry, nil
}

/*
* Returns a record holding the table's columns in table order with the
* table's schema. Every column must exist in the record with the same type.
 */
func SelectTableColumns(record arrow.Record, table *elements.Table) (arrow.Record, error) {
	schema := table.Schema()
	cols := make([]arrow.Array, schema.NumFields())
	for i, field := range schema.Fields() {
		idxs := record.Schema().FieldIndices(field.Name)
		if len(idxs) == 0 {
			return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("table %s column %s", table.TableName(), field.Name)), ErrColumnNotFound)
		}
		col := record.Column(idxs[0])
		if !arrow.TypeEqual(col.DataType(), field.Type) {
			return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("table %s column %s is %s, expected %s", table.TableName(), field.Name, col.DataType(), field.Type)), ErrSchemaMismatch)
		}
		cols[i] = col
	}
	return array.NewRecord(schema, cols, record.NumRows()), nil
}
