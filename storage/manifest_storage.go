package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alekLukanen/errs"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const ManifestFileName = "_manifest.json"

type IManifestStorage interface {
	GetTableManifest(context.Context, string) (*TableManifest, error)
	PutTableManifest(context.Context, *TableManifest) error
	UploadTableFile(context.Context, string, []byte) error
	ListTableObjects(context.Context, string) ([]string, error)
	ClearTable(context.Context, string) (int, error)
}

// ManifestStorage reads and writes the tables below an output location.
// Keys passed to it are relative to the location.
type ManifestStorage struct {
	logger *slog.Logger

	IObjectStorage

	location Location
}

func NewManifestStorage(
	ctx context.Context,
	logger *slog.Logger,
	objectStorage IObjectStorage,
	location Location,
) *ManifestStorage {
	return &ManifestStorage{
		logger:         logger,
		IObjectStorage: objectStorage,
		location:       location,
	}
}

func (obj *ManifestStorage) Location() Location {
	return obj.location
}

func (obj *ManifestStorage) manifestKey(tableName string) string {
	return obj.location.Join(tableName, ManifestFileName)
}

func (obj *ManifestStorage) tablePrefix(tableName string) string {
	return obj.location.Join(tableName) + "/"
}

// GetTableManifest returns the manifest of the last write of the table. A
// table that was never written returns an error matching *types.NoSuchKey.
func (obj *ManifestStorage) GetTableManifest(ctx context.Context, tableName string) (*TableManifest, error) {
	manifestData, err := obj.Download(ctx, obj.location.Bucket, obj.manifestKey(tableName))
	if err != nil {
		return nil, err
	}

	manifest, err := NewManifestFromBytes(manifestData)
	if err != nil {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("table %s", tableName)), ErrManifestInvalid, err)
	}
	return manifest, nil
}

func (obj *ManifestStorage) PutTableManifest(ctx context.Context, manifest *TableManifest) error {
	if err := manifest.Validate(); err != nil {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("table %s", manifest.TableName)), err)
	}
	manifestData, err := manifest.ToBytes()
	if err != nil {
		return errs.Wrap(err)
	}
	return obj.Upload(ctx, obj.location.Bucket, obj.manifestKey(manifest.TableName), manifestData)
}

func (obj *ManifestStorage) UploadTableFile(ctx context.Context, key string, data []byte) error {
	return obj.Upload(ctx, obj.location.Bucket, obj.location.Join(key), data)
}

// ListTableObjects lists every object below the table, keys relative to
// the location.
func (obj *ManifestStorage) ListTableObjects(ctx context.Context, tableName string) ([]string, error) {
	keys, err := obj.ListObjects(ctx, obj.location.Bucket, obj.tablePrefix(tableName))
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed listing table %s", tableName))
	}

	relKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		if rel, ok := obj.location.Relative(key); ok {
			relKeys = append(relKeys, rel)
		}
	}
	return relKeys, nil
}

// ClearTable deletes every object below the table and returns how many
// were deleted.
func (obj *ManifestStorage) ClearTable(ctx context.Context, tableName string) (int, error) {
	keys, err := obj.ListObjects(ctx, obj.location.Bucket, obj.tablePrefix(tableName))
	if err != nil {
		return 0, errs.Wrap(err, fmt.Errorf("failed listing table %s", tableName))
	}

	// data files go first so a failure leaves the previous manifest in place
	var manifestKey string
	deleted := 0
	for _, key := range keys {
		if strings.HasSuffix(key, "/"+ManifestFileName) {
			manifestKey = key
			continue
		}
		if err := obj.Delete(ctx, obj.location.Bucket, key); err != nil {
			return deleted, errs.Wrap(err, fmt.Errorf("failed deleting %s", key))
		}
		deleted++
	}
	if manifestKey != "" {
		if err := obj.Delete(ctx, obj.location.Bucket, manifestKey); err != nil {
			return deleted, errs.Wrap(err, fmt.Errorf("failed deleting %s", manifestKey))
		}
		deleted++
	}

	obj.logger.Debug("cleared table", slog.String("table", tableName), slog.Int("objects", deleted))
	return deleted, nil
}

// IsNotFound reports whether the error is a missing object.
func IsNotFound(err error) bool {
	var notFoundErr *types.NoSuchKey
	return errors.As(err, &notFoundErr)
}
