package operations

import (
	"testing"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionKeys(t *testing.T) {
	mem := memory.NewGoAllocator()
	songData := testSongData(t, mem)
	defer songData.Release()
	songs, err := BuildSongsTable(mem, songData)
	require.NoError(t, err)
	defer songs.Release()

	registry := testStarSchemaRegistry(t, 1)
	songsTable, err := registry.GetTable(SongsTableName)
	require.NoError(t, err)

	keys, err := PartitionKeys(mem, songs, songsTable.ColumnPartitions())
	require.NoError(t, err)
	defer keys.Release()

	assert.Equal(t, "year=0/artist_id=ARD7TVE1187B99BFB1", keys.Value(0))
	assert.Equal(t, "year=1969/artist_id=ARMJAGH1187FB546F3", keys.Value(1))

	usersTable, err := registry.GetTable(UsersTableName)
	require.NoError(t, err)
	noKeys, err := PartitionKeys(mem, songs, usersTable.ColumnPartitions())
	require.NoError(t, err)
	defer noKeys.Release()
	assert.Equal(t, "", noKeys.Value(2))

	buckets, err := BucketIndices(mem, songs, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0, 0}, buckets)
}
