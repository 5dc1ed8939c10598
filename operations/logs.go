package operations

import (
	"fmt"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	arrowops "github.com/alekLukanen/SparkifyLake/arrowOps"
)

const SongPlayPage = "NextSong"

var (
	usersSourceColumns = []string{"userId", "firstName", "lastName", "gender", "level"}
	usersColumnNames   = map[string]string{
		"userId":    "user_id",
		"firstName": "first_name",
		"lastName":  "last_name",
	}
	timeColumns           = []string{"start_time", "hour", "day", "week", "month", "year", "weekday"}
	songplaysLogColumns   = []string{"start_time", "userId", "level", "sessionId", "location", "userAgent", "year", "month"}
	songplaysColumnNames  = map[string]string{"userId": "user_id", "sessionId": "session_id", "userAgent": "user_agent"}
	logCatalogKeyColumns  = []string{"song", "artist", "length"}
	songplaysTableColumns = []string{
		"songplay_id", "start_time", "user_id", "level", "song_id",
		"artist_id", "session_id", "location", "user_agent", "year", "month",
	}
)

func columnByName(record arrow.Record, name string) (arrow.Array, error) {
	idxs := record.Schema().FieldIndices(name)
	if len(idxs) == 0 {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("column name: %s", name)), ErrColumnNotFound)
	}
	return record.Column(idxs[0]), nil
}

// FilterSongPlays keeps the events of the page that plays a song.
func FilterSongPlays(mem *memory.GoAllocator, logData arrow.Record) (arrow.Record, error) {
	pageCol, err := columnByName(logData, "page")
	if err != nil {
		return nil, err
	}
	pages, ok := pageCol.(*array.String)
	if !ok {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("page is %s", pageCol.DataType())), ErrSchemaMismatch)
	}
	return arrowops.FilterRecord(mem, logData, func(row int) bool {
		return pages.IsValid(row) && pages.Value(row) == SongPlayPage
	})
}

/*
* Builds the users table: the distinct user columns of the song plays. A
* user that changed level appears once per level.
 */
func BuildUsersTable(mem *memory.GoAllocator, songPlays arrow.Record) (arrow.Record, error) {
	selected, err := arrowops.TakeColumns(songPlays, usersSourceColumns)
	if err != nil {
		return nil, err
	}
	defer selected.Release()

	distinct, err := arrowops.DistinctRecord(mem, selected)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed removing duplicate users"))
	}
	defer distinct.Release()

	return arrowops.RenameColumns(distinct, usersColumnNames)
}

/*
* Adds start_time and its parts to the log rows. The epoch milliseconds of
* ts are read in the location; week is the ISO week and weekday counts from
* 1 for Sunday to 7 for Saturday. A null ts gives null time columns.
 */
func WithTimeColumns(mem *memory.GoAllocator, logData arrow.Record, loc *time.Location) (arrow.Record, error) {
	if loc == nil {
		loc = time.UTC
	}
	tsCol, err := columnByName(logData, "ts")
	if err != nil {
		return nil, err
	}
	ts, ok := tsCol.(*array.Int64)
	if !ok {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("ts is %s", tsCol.DataType())), ErrSchemaMismatch)
	}

	numRows := int(logData.NumRows())
	startTimeBldr := array.NewTimestampBuilder(mem, StartTimeType(loc))
	defer startTimeBldr.Release()
	startTimeBldr.Reserve(numRows)

	partNames := []string{"hour", "day", "week", "month", "year", "weekday"}
	partBldrs := make([]*array.Int32Builder, len(partNames))
	for i := range partBldrs {
		partBldrs[i] = array.NewInt32Builder(mem)
		defer partBldrs[i].Release()
		partBldrs[i].Reserve(numRows)
	}

	for i := 0; i < numRows; i++ {
		if ts.IsNull(i) {
			startTimeBldr.AppendNull()
			for _, bldr := range partBldrs {
				bldr.AppendNull()
			}
			continue
		}

		startTime := time.UnixMilli(ts.Value(i)).In(loc)
		_, isoWeek := startTime.ISOWeek()
		startTimeBldr.Append(arrow.Timestamp(ts.Value(i)))
		partBldrs[0].Append(int32(startTime.Hour()))
		partBldrs[1].Append(int32(startTime.Day()))
		partBldrs[2].Append(int32(isoWeek))
		partBldrs[3].Append(int32(startTime.Month()))
		partBldrs[4].Append(int32(startTime.Year()))
		partBldrs[5].Append(int32(startTime.Weekday()) + 1)
	}

	result := logData
	result.Retain()
	appendArr := func(field arrow.Field, arr arrow.Array) error {
		defer arr.Release()
		next, err := arrowops.AppendColumn(result, field, arr)
		if err != nil {
			return err
		}
		result.Release()
		result = next
		return nil
	}

	if err := appendArr(arrow.Field{Name: "start_time", Type: StartTimeType(loc), Nullable: true}, startTimeBldr.NewArray()); err != nil {
		result.Release()
		return nil, err
	}
	for i, name := range partNames {
		field := arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int32, Nullable: true}
		if err := appendArr(field, partBldrs[i].NewArray()); err != nil {
			result.Release()
			return nil, err
		}
	}
	return result, nil
}

// BuildTimeTable returns the distinct start times and their parts.
func BuildTimeTable(mem *memory.GoAllocator, withTime arrow.Record) (arrow.Record, error) {
	selected, err := arrowops.TakeColumns(withTime, timeColumns)
	if err != nil {
		return nil, err
	}
	defer selected.Release()

	return arrowops.DistinctRecord(mem, selected)
}

/*
* Builds the songplays fact table. The distinct song play rows are inner
* joined with the catalog on song = title, artist = artist_name and
* length = duration. A row with a null key column never matches and a row
* matching several catalog entries yields one songplay per entry.
 */
func BuildSongplaysTable(mem *memory.GoAllocator, withTime arrow.Record, catalog *SongCatalog) (arrow.Record, error) {
	plays, err := arrowops.DistinctRecord(mem, withTime)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed removing duplicate song plays"))
	}
	defer plays.Release()

	keyCols := make([]arrow.Array, len(logCatalogKeyColumns))
	for i, name := range logCatalogKeyColumns {
		keyCols[i], err = columnByName(plays, name)
		if err != nil {
			return nil, err
		}
	}
	encoder, err := arrowops.NewRowEncoder(plays.Schema(), logCatalogKeyColumns...)
	if err != nil {
		return nil, err
	}

	playIdxs := make([]uint32, 0)
	catalogIdxs := make([]uint32, 0)
	var buf []byte
	for i := 0; i < int(plays.NumRows()); i++ {
		if anyNull(keyCols, i) {
			continue
		}
		buf, err = encoder.Encode(plays, i, buf[:0])
		if err != nil {
			return nil, err
		}
		for _, catalogIdx := range catalog.Matches(buf) {
			playIdxs = append(playIdxs, uint32(i))
			catalogIdxs = append(catalogIdxs, uint32(catalogIdx))
		}
	}

	playCols, err := arrowops.TakeColumns(plays, songplaysLogColumns)
	if err != nil {
		return nil, err
	}
	defer playCols.Release()
	joinedPlays, err := arrowops.TakeRecordIndices(mem, playCols, playIdxs)
	if err != nil {
		return nil, err
	}
	defer joinedPlays.Release()

	catalogCols, err := arrowops.TakeColumns(catalog.Record(), []string{"song_id", "artist_id"})
	if err != nil {
		return nil, err
	}
	defer catalogCols.Release()
	joinedCatalog, err := arrowops.TakeRecordIndices(mem, catalogCols, catalogIdxs)
	if err != nil {
		return nil, err
	}
	defer joinedCatalog.Release()

	renamed, err := arrowops.RenameColumns(joinedPlays, songplaysColumnNames)
	if err != nil {
		return nil, err
	}
	defer renamed.Release()

	withSongId, err := arrowops.AppendColumn(renamed, joinedCatalog.Schema().Field(0), joinedCatalog.Column(0))
	if err != nil {
		return nil, err
	}
	defer withSongId.Release()
	withArtistId, err := arrowops.AppendColumn(withSongId, joinedCatalog.Schema().Field(1), joinedCatalog.Column(1))
	if err != nil {
		return nil, err
	}
	defer withArtistId.Release()

	withIds, err := arrowops.AppendSequenceColumn(mem, withArtistId, "songplay_id", 0)
	if err != nil {
		return nil, err
	}
	defer withIds.Release()

	return arrowops.TakeColumns(withIds, songplaysTableColumns)
}
