package warehouse

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekLukanen/SparkifyLake/operations"
	"github.com/alekLukanen/SparkifyLake/storage"
)

func testLogger() *slog.Logger {
	return slog.New(
		slog.NewJSONHandler(
			os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug},
		),
	)
}

var testSongFiles = map[string]string{
	"song_data/A/A/A/TRAAAAW128F429D538.json": `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`,
	"song_data/A/A/B/TRAABJL12903CDCF1A.json": `{"num_songs": 1, "artist_id": "ARMJAGH1187FB546F3", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "Memphis, TN", "artist_name": "The Box Tops", "song_id": "SOCIWDW12A8C13D406", "title": "Soul Deep", "duration": 148.03546, "year": 1969}`,
	"song_data/A/B/A/TRABACN128F425B784.json": `{"num_songs": 1, "artist_id": "ARMJAGH1187FB546F3", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "Memphis, TN", "artist_name": "The Box Tops", "song_id": "SOCIWDW12A8C13D406", "title": "Soul Deep", "duration": 148.03546, "year": 1969}`,
	"song_data/A/B/B/TRABBBV128F42967D7.json": `{"num_songs": 1, "artist_id": "AR5KOSW1187FB35FF4", "artist_latitude": 49.80388, "artist_longitude": 15.47491, "artist_location": "Dubai UAE", "artist_name": "Elena", "song_id": "SOZCTXZ12AB0182364", "title": "Setanta matins", "duration": 269.58322, "year": 0}`,
}

var testLogFiles = map[string]string{
	"log_data/2018/11/2018-11-01-events.json": strings.Join([]string{
		`{"artist":null,"auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":0,"lastName":"Frye","length":null,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"GET","page":"Home","registration":1540919166796.0,"sessionId":38,"song":null,"status":200,"ts":1541105830796,"userAgent":"Mozilla/5.0","userId":"39"}`,
		`{"artist":"The Box Tops","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":1,"lastName":"Summers","length":148.03546,"level":"free","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"Soul Deep","status":200,"ts":1541106106796,"userAgent":"Mozilla/5.0","userId":"8"}`,
		`{"artist":"The Box Tops","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":1,"lastName":"Summers","length":148.03546,"level":"free","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"Soul Deep","status":200,"ts":1541106106796,"userAgent":"Mozilla/5.0","userId":"8"}`,
		`{"artist":"Des'ree","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":2,"lastName":"Summers","length":246.30812,"level":"paid","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"You Gotta Be","status":200,"ts":1541106352796,"userAgent":"Mozilla/5.0","userId":"8"}`,
	}, "\n"),
	"log_data/2018/12/2018-12-01-events.json": strings.Join([]string{
		`{"artist":"Casual","auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":3,"lastName":"Frye","length":218.93179,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"PUT","page":"NextSong","registration":1540919166796.0,"sessionId":38,"song":"I Didn't Mean To","status":200,"ts":1543622400000,"userAgent":"Mozilla/5.0","userId":"39"}`,
		`{"artist":"Casual","auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":4,"lastName":"Frye","length":null,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"PUT","page":"NextSong","registration":1540919166796.0,"sessionId":38,"song":"I Didn't Mean To","status":200,"ts":null,"userAgent":"Mozilla/5.0","userId":"39"}`,
	}, "\n"),
}

func writeInputFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for key, content := range files {
		filePath := filepath.Join(root, filepath.FromSlash(key))
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}
}

func testOptions(t *testing.T, runId string) Options {
	t.Helper()
	root := t.TempDir()
	inputDir := filepath.Join(root, "input")
	writeInputFiles(t, inputDir, testSongFiles)
	writeInputFiles(t, inputDir, testLogFiles)
	return Options{
		InputData:   inputDir,
		OutputData:  "file://" + filepath.Join(root, "output"),
		BucketCount: 2,
		RunId:       runId,
		Read:        operations.ReadSourceOptions{Concurrency: 4},
	}
}

func TestWarehouseRun(t *testing.T) {
	ctx := context.Background()
	options := testOptions(t, "run1")

	wh, err := NewWarehouse(ctx, testLogger(), memory.NewGoAllocator(), options)
	require.NoError(t, err)
	assert.Equal(t, "run1", wh.RunId())

	summary, err := wh.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run1", summary.RunId)

	expectedRows := []struct {
		tableName string
		rows      int64
	}{
		{tableName: operations.SongsTableName, rows: 3},
		{tableName: operations.ArtistsTableName, rows: 3},
		{tableName: operations.UsersTableName, rows: 3},
		{tableName: operations.TimeTableName, rows: 4},
		{tableName: operations.SongplaysTableName, rows: 2},
	}
	require.Len(t, summary.Tables, len(expectedRows))
	for idx, expected := range expectedRows {
		assert.Equal(t, expected.tableName, summary.Tables[idx].TableName)
		assert.Equal(t, expected.rows, summary.Tables[idx].NumRows, expected.tableName)
		assert.False(t, summary.Tables[idx].Skipped)

		manifest, err := wh.ManifestStorage().GetTableManifest(ctx, expected.tableName)
		require.NoError(t, err)
		assert.Equal(t, "run1", manifest.RunId)
		assert.Equal(t, expected.rows, manifest.NumRows)
	}

	songplays, ok := summary.Table(operations.SongplaysTableName)
	require.True(t, ok)
	assert.Equal(t, 2, songplays.Partitions)

	timeKeys, err := wh.ManifestStorage().ListTableObjects(ctx, operations.TimeTableName)
	require.NoError(t, err)
	assert.Contains(t, timeKeys, "time/year=__HIVE_DEFAULT_PARTITION__/month=__HIVE_DEFAULT_PARTITION__/part-00000-run1-c000.snappy.parquet")

	fields := summary.Fields()
	assert.Equal(t, "run1", fields["run_id"])
	assert.Equal(t, int64(2), fields["songplays.rows"])
}

func TestWarehouseRunSaveModes(t *testing.T) {
	ctx := context.Background()
	options := testOptions(t, "run1")

	wh, err := NewWarehouse(ctx, testLogger(), memory.NewGoAllocator(), options)
	require.NoError(t, err)
	_, err = wh.Run(ctx)
	require.NoError(t, err)

	options.RunId = "run2"
	options.Write.Mode = operations.SaveModeErrorIfExists
	wh, err = NewWarehouse(ctx, testLogger(), memory.NewGoAllocator(), options)
	require.NoError(t, err)
	_, err = wh.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunFailed))
	assert.True(t, errors.Is(err, ErrTableNotWritten))

	options.RunId = "run3"
	options.Write.Mode = operations.SaveModeIgnore
	wh, err = NewWarehouse(ctx, testLogger(), memory.NewGoAllocator(), options)
	require.NoError(t, err)
	summary, err := wh.Run(ctx)
	require.NoError(t, err)
	for _, table := range summary.Tables {
		assert.True(t, table.Skipped, table.TableName)
	}
	manifest, err := wh.ManifestStorage().GetTableManifest(ctx, operations.SongsTableName)
	require.NoError(t, err)
	assert.Equal(t, "run1", manifest.RunId)

	options.RunId = "run4"
	options.Write.Mode = operations.SaveModeOverwrite
	wh, err = NewWarehouse(ctx, testLogger(), memory.NewGoAllocator(), options)
	require.NoError(t, err)
	_, err = wh.Run(ctx)
	require.NoError(t, err)
	keys, err := wh.ManifestStorage().ListTableObjects(ctx, operations.SongsTableName)
	require.NoError(t, err)
	for _, key := range keys {
		assert.NotContains(t, key, "run1")
	}
}

func TestWarehouseRunWithoutInput(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	wh, err := NewWarehouse(ctx, testLogger(), memory.NewGoAllocator(), Options{
		InputData:  filepath.Join(root, "input"),
		OutputData: filepath.Join(root, "output"),
		TimeZone:   time.UTC,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, wh.RunId())

	_, err = wh.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, operations.ErrNoInputFiles))
}

func TestNewWarehouseRejectsLocations(t *testing.T) {
	ctx := context.Background()

	_, err := NewWarehouse(ctx, testLogger(), memory.NewGoAllocator(), Options{
		InputData:  "gs://bucket/input",
		OutputData: t.TempDir(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrUnsupportedScheme))

	_, err = NewWarehouse(ctx, testLogger(), memory.NewGoAllocator(), Options{
		InputData:  t.TempDir(),
		OutputData: t.TempDir(),
		Write:      operations.TableWriterOptions{Mode: "merge"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, operations.ErrInvalidSaveMode))
}
