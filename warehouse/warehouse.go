package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/google/uuid"

	"github.com/alekLukanen/SparkifyLake/operations"
	"github.com/alekLukanen/SparkifyLake/storage"
)

type Options struct {
	InputData  string
	OutputData string

	SongDataGlob string
	LogDataGlob  string
	TimeZone     *time.Location
	BucketCount  int

	// RunId names the files of the run, a random uuid when empty.
	RunId string

	ObjectStorage storage.ObjectStorageOptions
	Read          operations.ReadSourceOptions
	Write         operations.TableWriterOptions
}

type RunSummary struct {
	RunId     string
	StartedAt time.Time
	Elapsed   time.Duration
	Tables    []operations.TableWriteResult
}

// Fields flattens the summary into the values stored with the run.
func (obj RunSummary) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"run_id":     obj.RunId,
		"started_at": obj.StartedAt.UTC().Format(time.RFC3339),
		"elapsed_ms": obj.Elapsed.Milliseconds(),
	}
	for _, table := range obj.Tables {
		fields[fmt.Sprintf("%s.rows", table.TableName)] = table.NumRows
		fields[fmt.Sprintf("%s.files", table.TableName)] = table.NumFiles
		fields[fmt.Sprintf("%s.skipped", table.TableName)] = table.Skipped
	}
	return fields
}

func (obj RunSummary) Table(tableName string) (operations.TableWriteResult, bool) {
	for _, table := range obj.Tables {
		if table.TableName == tableName {
			return table, true
		}
	}
	return operations.TableWriteResult{}, false
}

type Warehouse struct {
	logger    *slog.Logger
	allocator *memory.GoAllocator

	runId          string
	inputLocation  storage.Location
	outputLocation storage.Location
	inputStorage   storage.IObjectStorage

	manifestStorage storage.IManifestStorage
	tableRegistry   *operations.TableRegistry
	tableWriter     *operations.TableWriter
	options         Options
}

func NewWarehouse(
	ctx context.Context,
	logger *slog.Logger,
	allocator *memory.GoAllocator,
	options Options,
) (*Warehouse, error) {
	inputLocation, err := storage.ParseLocation(options.InputData)
	if err != nil {
		return nil, err
	}
	outputLocation, err := storage.ParseLocation(options.OutputData)
	if err != nil {
		return nil, err
	}

	inputStorage, err := storage.NewObjectStorageForLocation(ctx, logger, inputLocation, options.ObjectStorage)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed creating input storage for %s", inputLocation))
	}
	outputStorage, err := storage.NewObjectStorageForLocation(ctx, logger, outputLocation, options.ObjectStorage)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed creating output storage for %s", outputLocation))
	}

	if options.SongDataGlob == "" {
		options.SongDataGlob = operations.DefaultSongDataGlob
	}
	if options.LogDataGlob == "" {
		options.LogDataGlob = operations.DefaultLogDataGlob
	}
	if options.TimeZone == nil {
		options.TimeZone = time.UTC
	}
	if options.BucketCount < 1 {
		options.BucketCount = 1
	}
	if options.RunId == "" {
		options.RunId = uuid.New().String()
	}

	tableRegistry, err := operations.NewStarSchemaRegistry(ctx, logger, operations.StarSchemaOptions{
		BucketCount: options.BucketCount,
		TimeZone:    options.TimeZone,
	})
	if err != nil {
		return nil, err
	}

	manifestStorage := storage.NewManifestStorage(ctx, logger, outputStorage, outputLocation)
	tableWriter, err := operations.NewTableWriter(ctx, logger, allocator, manifestStorage, options.RunId, options.Write)
	if err != nil {
		return nil, err
	}

	return &Warehouse{
		logger:          logger.With(slog.String("runId", options.RunId)),
		allocator:       allocator,
		runId:           options.RunId,
		inputLocation:   inputLocation,
		outputLocation:  outputLocation,
		inputStorage:    inputStorage,
		manifestStorage: manifestStorage,
		tableRegistry:   tableRegistry,
		tableWriter:     tableWriter,
		options:         options,
	}, nil
}

func (obj *Warehouse) RunId() string {
	return obj.runId
}

func (obj *Warehouse) OutputLocation() storage.Location {
	return obj.outputLocation
}

func (obj *Warehouse) TableRegistry() *operations.TableRegistry {
	return obj.tableRegistry
}

func (obj *Warehouse) ManifestStorage() storage.IManifestStorage {
	return obj.manifestStorage
}

func (obj *Warehouse) writeTable(ctx context.Context, tableName string, record arrow.Record) (operations.TableWriteResult, error) {
	table, err := obj.tableRegistry.GetTable(tableName)
	if err != nil {
		return operations.TableWriteResult{TableName: tableName}, err
	}
	result, err := obj.tableWriter.WriteTable(ctx, table, record)
	if err != nil {
		return result, errs.Wrap(errs.NewStackError(fmt.Errorf("table %s", tableName)), ErrTableNotWritten, err)
	}
	return result, nil
}

/*
* Reads the song data and writes the songs and artists tables. The returned
* catalog is what the log data is joined with; the caller releases it.
 */
func (obj *Warehouse) ProcessSongData(ctx context.Context) (*operations.SongCatalog, []operations.TableWriteResult, error) {
	songData, err := operations.ReadSource(
		ctx,
		obj.logger,
		obj.allocator,
		obj.inputStorage,
		obj.inputLocation,
		operations.SongDataSource(obj.options.SongDataGlob),
		obj.options.Read,
	)
	if err != nil {
		return nil, nil, err
	}
	defer songData.Release()

	songs, err := operations.BuildSongsTable(obj.allocator, songData)
	if err != nil {
		return nil, nil, err
	}
	defer songs.Release()

	results := make([]operations.TableWriteResult, 0, 2)
	result, err := obj.writeTable(ctx, operations.SongsTableName, songs)
	if err != nil {
		return nil, nil, err
	}
	results = append(results, result)

	artists, err := operations.BuildArtistsTable(obj.allocator, songData)
	if err != nil {
		return nil, nil, err
	}
	defer artists.Release()

	result, err = obj.writeTable(ctx, operations.ArtistsTableName, artists)
	if err != nil {
		return nil, nil, err
	}
	results = append(results, result)

	catalog, err := operations.BuildSongCatalog(obj.allocator, songData, songs)
	if err != nil {
		return nil, nil, err
	}
	return catalog, results, nil
}

/*
* Reads the log data and writes the users, time and songplays tables. Only
* the song play events are used for all three.
 */
func (obj *Warehouse) ProcessLogData(ctx context.Context, catalog *operations.SongCatalog) ([]operations.TableWriteResult, error) {
	logData, err := operations.ReadSource(
		ctx,
		obj.logger,
		obj.allocator,
		obj.inputStorage,
		obj.inputLocation,
		operations.LogDataSource(obj.options.LogDataGlob),
		obj.options.Read,
	)
	if err != nil {
		return nil, err
	}
	defer logData.Release()

	plays, err := operations.FilterSongPlays(obj.allocator, logData)
	if err != nil {
		return nil, err
	}
	defer plays.Release()
	obj.logger.Info("filtered song plays", slog.Int64("events", logData.NumRows()), slog.Int64("plays", plays.NumRows()))

	results := make([]operations.TableWriteResult, 0, 3)

	users, err := operations.BuildUsersTable(obj.allocator, plays)
	if err != nil {
		return nil, err
	}
	defer users.Release()
	result, err := obj.writeTable(ctx, operations.UsersTableName, users)
	if err != nil {
		return nil, err
	}
	results = append(results, result)

	withTime, err := operations.WithTimeColumns(obj.allocator, plays, obj.options.TimeZone)
	if err != nil {
		return nil, err
	}
	defer withTime.Release()

	timeTable, err := operations.BuildTimeTable(obj.allocator, withTime)
	if err != nil {
		return nil, err
	}
	defer timeTable.Release()
	result, err = obj.writeTable(ctx, operations.TimeTableName, timeTable)
	if err != nil {
		return nil, err
	}
	results = append(results, result)

	songplays, err := operations.BuildSongplaysTable(obj.allocator, withTime, catalog)
	if err != nil {
		return nil, err
	}
	defer songplays.Release()
	result, err = obj.writeTable(ctx, operations.SongplaysTableName, songplays)
	if err != nil {
		return nil, err
	}
	results = append(results, result)

	return results, nil
}

// Run processes the song data and then the log data.
func (obj *Warehouse) Run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{RunId: obj.runId, StartedAt: time.Now()}
	obj.logger.Info(
		"starting run",
		slog.String("input", obj.inputLocation.String()),
		slog.String("output", obj.outputLocation.String()),
	)

	catalog, songResults, err := obj.ProcessSongData(ctx)
	if err != nil {
		return summary, errs.Wrap(errs.NewStackError(fmt.Errorf("song data")), ErrRunFailed, err)
	}
	defer catalog.Release()
	summary.Tables = append(summary.Tables, songResults...)

	logResults, err := obj.ProcessLogData(ctx, catalog)
	if err != nil {
		return summary, errs.Wrap(errs.NewStackError(fmt.Errorf("log data")), ErrRunFailed, err)
	}
	summary.Tables = append(summary.Tables, logResults...)

	summary.Elapsed = time.Since(summary.StartedAt)
	obj.logger.Info("finished run", slog.Duration("elapsed", summary.Elapsed), slog.Int("tables", len(summary.Tables)))
	return summary, nil
}
