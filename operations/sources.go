package operations

import (
	"github.com/apache/arrow/go/v17/arrow"

	"github.com/alekLukanen/SparkifyLake/elements"
)

const (
	SongDataSourceName = "song_data"
	LogDataSourceName  = "log_data"

	DefaultSongDataGlob = "song_data/*/*/*/*.json"
	DefaultLogDataGlob  = "log_data/*/*/*.json"
)

// SongDataSource is one JSON object per song, as published by the Million
// Song Dataset subset.
func SongDataSource(glob string) elements.Source {
	return elements.NewSource(
		SongDataSourceName,
		glob,
		elements.NewColumn("num_songs", arrow.PrimitiveTypes.Int64),
		elements.NewColumn("artist_id", arrow.BinaryTypes.String),
		elements.NewColumn("artist_latitude", arrow.PrimitiveTypes.Float64),
		elements.NewColumn("artist_longitude", arrow.PrimitiveTypes.Float64),
		elements.NewColumn("artist_location", arrow.BinaryTypes.String),
		elements.NewColumn("artist_name", arrow.BinaryTypes.String),
		elements.NewColumn("song_id", arrow.BinaryTypes.String),
		elements.NewColumn("title", arrow.BinaryTypes.String),
		elements.NewColumn("duration", arrow.PrimitiveTypes.Float64),
		elements.NewColumn("year", arrow.PrimitiveTypes.Int64),
	)
}

// LogDataSource is one JSON object per app event.
func LogDataSource(glob string) elements.Source {
	return elements.NewSource(
		LogDataSourceName,
		glob,
		elements.NewColumn("artist", arrow.BinaryTypes.String),
		elements.NewColumn("auth", arrow.BinaryTypes.String),
		elements.NewColumn("firstName", arrow.BinaryTypes.String),
		elements.NewColumn("gender", arrow.BinaryTypes.String),
		elements.NewColumn("itemInSession", arrow.PrimitiveTypes.Int64),
		elements.NewColumn("lastName", arrow.BinaryTypes.String),
		elements.NewColumn("length", arrow.PrimitiveTypes.Float64),
		elements.NewColumn("level", arrow.BinaryTypes.String),
		elements.NewColumn("location", arrow.BinaryTypes.String),
		elements.NewColumn("method", arrow.BinaryTypes.String),
		elements.NewColumn("page", arrow.BinaryTypes.String),
		elements.NewColumn("registration", arrow.PrimitiveTypes.Float64),
		elements.NewColumn("sessionId", arrow.PrimitiveTypes.Int64),
		elements.NewColumn("song", arrow.BinaryTypes.String),
		elements.NewColumn("status", arrow.PrimitiveTypes.Int64),
		elements.NewColumn("ts", arrow.PrimitiveTypes.Int64),
		elements.NewColumn("userAgent", arrow.BinaryTypes.String),
		elements.NewColumn("userId", arrow.BinaryTypes.String),
	)
}
