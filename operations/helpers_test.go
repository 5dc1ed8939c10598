package operations

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/require"

	arrowops "github.com/alekLukanen/SparkifyLake/arrowOps"
	"github.com/alekLukanen/SparkifyLake/elements"
)

func testLogger() *slog.Logger {
	return slog.New(
		slog.NewJSONHandler(
			os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug},
		),
	)
}

var songDataLines = []string{
	`{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`,
	`{"num_songs": 1, "artist_id": "ARMJAGH1187FB546F3", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "Memphis, TN", "artist_name": "The Box Tops", "song_id": "SOCIWDW12A8C13D406", "title": "Soul Deep", "duration": 148.03546, "year": 1969}`,
	`{"num_songs": 1, "artist_id": "ARMJAGH1187FB546F3", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "Memphis, TN", "artist_name": "The Box Tops", "song_id": "SOCIWDW12A8C13D406", "title": "Soul Deep", "duration": 148.03546, "year": 1969}`,
	`{"num_songs": 1, "artist_id": "AR5KOSW1187FB35FF4", "artist_latitude": 49.80388, "artist_longitude": 15.47491, "artist_location": "Dubai UAE", "artist_name": "Elena", "song_id": "SOZCTXZ12AB0182364", "title": "Setanta matins", "duration": 269.58322, "year": 0}`,
}

var logDataLines = []string{
	`{"artist":null,"auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":0,"lastName":"Frye","length":null,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"GET","page":"Home","registration":1540919166796.0,"sessionId":38,"song":null,"status":200,"ts":1541105830796,"userAgent":"Mozilla/5.0","userId":"39"}`,
	`{"artist":"The Box Tops","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":1,"lastName":"Summers","length":148.03546,"level":"free","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"Soul Deep","status":200,"ts":1541106106796,"userAgent":"Mozilla/5.0","userId":"8"}`,
	`{"artist":"The Box Tops","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":1,"lastName":"Summers","length":148.03546,"level":"free","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"Soul Deep","status":200,"ts":1541106106796,"userAgent":"Mozilla/5.0","userId":"8"}`,
	`{"artist":"Des'ree","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":2,"lastName":"Summers","length":246.30812,"level":"paid","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"You Gotta Be","status":200,"ts":1541106352796,"userAgent":"Mozilla/5.0","userId":"8"}`,
	`{"artist":"Casual","auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":3,"lastName":"Frye","length":218.93179,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"PUT","page":"NextSong","registration":1540919166796.0,"sessionId":38,"song":"I Didn't Mean To","status":200,"ts":1543622400000,"userAgent":"Mozilla/5.0","userId":"39"}`,
	`{"artist":"Casual","auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":4,"lastName":"Frye","length":null,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"PUT","page":"NextSong","registration":1540919166796.0,"sessionId":38,"song":"I Didn't Mean To","status":200,"ts":null,"userAgent":"Mozilla/5.0","userId":"39"}`,
}

func readTestRecord(t *testing.T, mem *memory.GoAllocator, source elements.Source, lines []string) arrow.Record {
	t.Helper()
	rec, err := arrowops.ReadJSONRecord(mem, strings.NewReader(strings.Join(lines, "\n")), source.Schema())
	require.NoError(t, err)
	return rec
}

func testSongData(t *testing.T, mem *memory.GoAllocator) arrow.Record {
	return readTestRecord(t, mem, SongDataSource(DefaultSongDataGlob), songDataLines)
}

func testLogData(t *testing.T, mem *memory.GoAllocator) arrow.Record {
	return readTestRecord(t, mem, LogDataSource(DefaultLogDataGlob), logDataLines)
}

func stringValues(t *testing.T, rec arrow.Record, name string) []string {
	t.Helper()
	col, err := columnByName(rec, name)
	require.NoError(t, err)
	arr := col.(*array.String)
	values := make([]string, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			values[i] = "<null>"
			continue
		}
		values[i] = arr.Value(i)
	}
	return values
}

func int64Values(t *testing.T, rec arrow.Record, name string) []int64 {
	t.Helper()
	col, err := columnByName(rec, name)
	require.NoError(t, err)
	return col.(*array.Int64).Int64Values()
}

func int32Values(t *testing.T, rec arrow.Record, name string) []int32 {
	t.Helper()
	col, err := columnByName(rec, name)
	require.NoError(t, err)
	return col.(*array.Int32).Int32Values()
}

func testStarSchemaRegistry(t *testing.T, bucketCount int) *TableRegistry {
	t.Helper()
	registry, err := NewStarSchemaRegistry(context.Background(), testLogger(), StarSchemaOptions{BucketCount: bucketCount})
	require.NoError(t, err)
	return registry
}
