package storage

import (
	"fmt"
	"path"
	"time"

	arrowops "github.com/alekLukanen/SparkifyLake/arrowOps"
)

// TableManifestBuilder names the data files of one table write and
// collects them into the manifest.
type TableManifestBuilder struct {
	manifest *TableManifest
	seqs     map[string]int
}

func NewTableManifestBuilder(
	tableName string,
	runId string,
	mode string,
	partitionColumns []string,
	createdAt time.Time,
) *TableManifestBuilder {
	return &TableManifestBuilder{
		manifest: &TableManifest{
			RunId:            runId,
			TableName:        tableName,
			Mode:             mode,
			CreatedAt:        createdAt.UTC(),
			PartitionColumns: partitionColumns,
			Files:            []ManifestFile{},
		},
		seqs: make(map[string]int),
	}
}

// NextFileKey returns the table relative key of the next file of the
// partition and bucket, as
// <table>/<partition>/part-<bucket>-<run id>-c<seq>.<codec>.parquet.
func (obj *TableManifestBuilder) NextFileKey(partitionKey string, bucket int, codecExtension string) string {
	seqKey := fmt.Sprintf("%s#%d", partitionKey, bucket)
	seq := obj.seqs[seqKey]
	obj.seqs[seqKey] = seq + 1

	fileName := fmt.Sprintf("part-%05d-%s-c%03d", bucket, obj.manifest.RunId, seq)
	if codecExtension != "" {
		fileName += "." + codecExtension
	}
	fileName += ".parquet"

	return path.Join(obj.manifest.TableName, partitionKey, fileName)
}

func (obj *TableManifestBuilder) AddFile(partitionKey string, bucket int, pqf arrowops.ParquetFile) {
	obj.manifest.Files = append(obj.manifest.Files, ManifestFile{
		Key:       pqf.Key,
		Partition: partitionKey,
		Bucket:    bucket,
		NumRows:   pqf.NumRows,
		Size:      pqf.Size,
	})
	obj.manifest.NumRows += pqf.NumRows
}

func (obj *TableManifestBuilder) Manifest() *TableManifest {
	obj.manifest.SortFiles()
	return obj.manifest
}
