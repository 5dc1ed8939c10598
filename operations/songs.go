package operations

import (
	"fmt"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	arrowops "github.com/alekLukanen/SparkifyLake/arrowOps"
)

var (
	songsSourceColumns   = []string{"title", "artist_id", "year", "duration"}
	artistsSourceColumns = []string{"artist_id", "artist_name", "artist_location", "artist_latitude", "artist_longitude"}
	artistsColumnNames   = map[string]string{
		"artist_name":      "name",
		"artist_location":  "location",
		"artist_latitude":  "latitude",
		"artist_longitude": "longitude",
	}
	catalogKeyColumns = []string{"title", "artist_name", "duration"}
)

/*
* Builds the songs table: the distinct (title, artist_id, year, duration)
* rows of the song data, each given a surrogate song_id.
 */
func BuildSongsTable(mem *memory.GoAllocator, songData arrow.Record) (arrow.Record, error) {
	selected, err := arrowops.TakeColumns(songData, songsSourceColumns)
	if err != nil {
		return nil, err
	}
	defer selected.Release()

	distinct, err := arrowops.DistinctRecord(mem, selected)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed removing duplicate songs"))
	}
	defer distinct.Release()

	withIds, err := arrowops.AppendSequenceColumn(mem, distinct, "song_id", 0)
	if err != nil {
		return nil, err
	}
	defer withIds.Release()

	return arrowops.TakeColumns(withIds, []string{"song_id", "title", "artist_id", "year", "duration"})
}

/*
* Builds the artists table: the distinct artist columns of the song data
* renamed to the table's column names.
 */
func BuildArtistsTable(mem *memory.GoAllocator, songData arrow.Record) (arrow.Record, error) {
	selected, err := arrowops.TakeColumns(songData, artistsSourceColumns)
	if err != nil {
		return nil, err
	}
	defer selected.Release()

	distinct, err := arrowops.DistinctRecord(mem, selected)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed removing duplicate artists"))
	}
	defer distinct.Release()

	return arrowops.RenameColumns(distinct, artistsColumnNames)
}

// SongCatalog is the view of the song data joined with the log data. Each
// entry maps (title, artist_name, duration) to the song_id and artist_id of
// the songs table row it belongs to.
type SongCatalog struct {
	record arrow.Record
	index  map[string][]int
}

/*
* Builds the catalog from the song data and the songs table built from it.
* Song data rows are matched to their songs row by the songs table's
* columns, so the catalog's song_id always exists in the songs table.
 */
func BuildSongCatalog(mem *memory.GoAllocator, songData arrow.Record, songs arrow.Record) (*SongCatalog, error) {
	songsEncoder, err := arrowops.NewRowEncoder(songs.Schema(), songsSourceColumns...)
	if err != nil {
		return nil, err
	}
	songIdIdxs := songs.Schema().FieldIndices("song_id")
	if len(songIdIdxs) == 0 {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("songs column song_id")), ErrColumnNotFound)
	}
	songIds := songs.Column(songIdIdxs[0]).(*array.Int64)

	songIdByRow := make(map[string]int64, songs.NumRows())
	var buf []byte
	for i := 0; i < int(songs.NumRows()); i++ {
		buf, err = songsEncoder.Encode(songs, i, buf[:0])
		if err != nil {
			return nil, err
		}
		songIdByRow[string(buf)] = songIds.Value(i)
	}

	dataEncoder, err := arrowops.NewRowEncoder(songData.Schema(), songsSourceColumns...)
	if err != nil {
		return nil, err
	}
	idBldr := array.NewInt64Builder(mem)
	defer idBldr.Release()
	for i := 0; i < int(songData.NumRows()); i++ {
		buf, err = dataEncoder.Encode(songData, i, buf[:0])
		if err != nil {
			return nil, err
		}
		songId, ok := songIdByRow[string(buf)]
		if !ok {
			return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("song data row %d has no songs row", i)), ErrSchemaMismatch)
		}
		idBldr.Append(songId)
	}
	idArr := idBldr.NewArray()
	defer idArr.Release()

	keyed, err := arrowops.TakeColumns(songData, append(append([]string{}, catalogKeyColumns...), "artist_id"))
	if err != nil {
		return nil, err
	}
	defer keyed.Release()

	withIds, err := arrowops.AppendColumn(keyed, arrow.Field{Name: "song_id", Type: arrow.PrimitiveTypes.Int64, Nullable: true}, idArr)
	if err != nil {
		return nil, err
	}
	defer withIds.Release()

	catalogRecord, err := arrowops.DistinctRecord(mem, withIds)
	if err != nil {
		return nil, err
	}

	catalog := &SongCatalog{record: catalogRecord}
	if err := catalog.buildIndex(); err != nil {
		catalogRecord.Release()
		return nil, err
	}
	return catalog, nil
}

func (obj *SongCatalog) buildIndex() error {
	encoder, err := arrowops.NewRowEncoder(obj.record.Schema(), catalogKeyColumns...)
	if err != nil {
		return err
	}
	keyCols := make([]arrow.Array, len(catalogKeyColumns))
	for i, name := range catalogKeyColumns {
		keyCols[i] = obj.record.Column(obj.record.Schema().FieldIndices(name)[0])
	}

	obj.index = make(map[string][]int)
	var buf []byte
	for i := 0; i < int(obj.record.NumRows()); i++ {
		if anyNull(keyCols, i) {
			continue
		}
		buf, err = encoder.Encode(obj.record, i, buf[:0])
		if err != nil {
			return err
		}
		obj.index[string(buf)] = append(obj.index[string(buf)], i)
	}
	return nil
}

// Record holds title, artist_name, duration, artist_id and song_id.
func (obj *SongCatalog) Record() arrow.Record {
	return obj.record
}

func (obj *SongCatalog) Len() int {
	return int(obj.record.NumRows())
}

// Matches returns the catalog rows with the encoded key.
func (obj *SongCatalog) Matches(key []byte) []int {
	return obj.index[string(key)]
}

func (obj *SongCatalog) Release() {
	if obj.record != nil {
		obj.record.Release()
		obj.record = nil
	}
}

func anyNull(cols []arrow.Array, row int) bool {
	for _, col := range cols {
		if col.IsNull(row) {
			return true
		}
	}
	return false
}
