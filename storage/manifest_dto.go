package storage

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

type ManifestFile struct {
	Key       string `json:"key"`
	Partition string `json:"partition"`
	Bucket    int    `json:"bucket"`
	NumRows   int64  `json:"num_rows"`
	Size      int64  `json:"size"`
}

func (obj *ManifestFile) Validate() error {
	if obj.Key == "" {
		return fmt.Errorf("%w: key is required", ErrManifestInvalid)
	}
	if obj.Bucket < 0 {
		return fmt.Errorf("%w: bucket must be positive", ErrManifestInvalid)
	}
	if obj.NumRows < 0 {
		return fmt.Errorf("%w: num rows must be positive", ErrManifestInvalid)
	}
	if obj.Size < 0 {
		return fmt.Errorf("%w: size must be positive", ErrManifestInvalid)
	}
	return nil
}

// TableManifest describes one write of a table.
type TableManifest struct {
	RunId            string         `json:"run_id"`
	TableName        string         `json:"table_name"`
	Mode             string         `json:"mode"`
	CreatedAt        time.Time      `json:"created_at"`
	PartitionColumns []string       `json:"partition_columns"`
	NumRows          int64          `json:"num_rows"`
	Files            []ManifestFile `json:"files"`
}

func NewManifestFromBytes(data []byte) (*TableManifest, error) {
	manifest := &TableManifest{}
	err := json.Unmarshal(data, manifest)
	if err != nil {
		return nil, err
	}

	manifest.SortFiles()
	if ifErr := manifest.Validate(); ifErr != nil {
		return nil, ifErr
	}

	return manifest, nil
}

func (obj *TableManifest) ToBytes() ([]byte, error) {
	return json.MarshalIndent(obj, "", "  ")
}

func (obj *TableManifest) SortFiles() {
	slices.SortFunc(obj.Files, func(a, b ManifestFile) int {
		return cmp.Compare(a.Key, b.Key)
	})
}

// Partitions lists the distinct partition paths in key order.
func (obj *TableManifest) Partitions() []string {
	partitions := make([]string, 0)
	for _, file := range obj.Files {
		partitions = append(partitions, file.Partition)
	}
	slices.Sort(partitions)
	return slices.Compact(partitions)
}

func (obj *TableManifest) Validate() error {
	if obj.RunId == "" {
		return fmt.Errorf("%w: run id is required", ErrManifestInvalid)
	}
	if obj.TableName == "" {
		return fmt.Errorf("%w: table name is required", ErrManifestInvalid)
	}

	var numRows int64
	for idx, file := range obj.Files {
		if ifErr := file.Validate(); ifErr != nil {
			return fmt.Errorf("%w: file at index %d is invalid: %w", ErrManifestInvalid, idx, ifErr)
		}
		numRows += file.NumRows
	}
	if numRows != obj.NumRows {
		return fmt.Errorf("%w: files hold %d rows, manifest has %d", ErrManifestInvalid, numRows, obj.NumRows)
	}

	return nil
}
