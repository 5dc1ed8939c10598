package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alekLukanen/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// LocalObjectStorage stores objects as files. The bucket is the root
// directory and keys are slash separated paths below it.
type LocalObjectStorage struct {
	logger *slog.Logger
}

func NewLocalObjectStorage(logger *slog.Logger) *LocalObjectStorage {
	return &LocalObjectStorage{logger: logger}
}

func (obj *LocalObjectStorage) objectPath(bucket, key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", errs.Wrap(errs.NewStackError(fmt.Errorf("key: %q", key)), ErrInvalidKey)
	}
	root := filepath.Clean(bucket)
	objPath := filepath.Join(root, filepath.FromSlash(key))
	rel, err := filepath.Rel(root, objPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", errs.Wrap(errs.NewStackError(fmt.Errorf("key %q escapes %s", key, bucket)), ErrInvalidKey)
	}
	return objPath, nil
}

func (obj *LocalObjectStorage) Upload(ctx context.Context, bucket, key string, data []byte) error {
	obj.logger.Debug(
		"writing object", slog.String("bucket", bucket), slog.String("key", key), slog.Int("numBytes", len(data)),
	)

	objPath, err := obj.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(objPath), 0o755); err != nil {
		return errs.Wrap(err)
	}

	// write then rename so readers never see a partial object
	tmpFile, err := os.CreateTemp(filepath.Dir(objPath), ".upload-*")
	if err != nil {
		return errs.Wrap(err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return errs.Wrap(err)
	}
	if err := tmpFile.Close(); err != nil {
		return errs.Wrap(err)
	}
	if err := os.Rename(tmpFile.Name(), objPath); err != nil {
		return errs.Wrap(err)
	}
	return nil
}

func (obj *LocalObjectStorage) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	obj.logger.Debug("reading object", slog.String("bucket", bucket), slog.String("key", key))

	objPath, err := obj.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(objPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(
			errs.NewStackError(fmt.Errorf("read %s", objPath)),
			&types.NoSuchKey{Message: aws.String(fmt.Sprintf("%s/%s", bucket, key))},
		)
	} else if err != nil {
		return nil, errs.Wrap(err)
	}
	return data, nil
}

// Delete removes the object. Deleting a missing object is not an error,
// matching S3.
func (obj *LocalObjectStorage) Delete(ctx context.Context, bucket, key string) error {
	obj.logger.Debug("deleting object", slog.String("bucket", bucket), slog.String("key", key))

	objPath, err := obj.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(objPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.Wrap(err)
	}
	return nil
}

// listRoot is the directory holding every key that starts with prefix.
func (obj *LocalObjectStorage) listRoot(bucket, prefix string) (string, error) {
	idx := strings.LastIndex(prefix, "/")
	if idx <= 0 {
		return filepath.Clean(bucket), nil
	}
	return obj.objectPath(bucket, prefix[:idx])
}

func (obj *LocalObjectStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	obj.logger.Debug("listing objects", slog.String("bucket", bucket), slog.String("prefix", prefix))

	root := filepath.Clean(bucket)
	walkRoot, err := obj.listRoot(bucket, prefix)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0)
	err = filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if d.IsDir() {
			if p == walkRoot {
				return nil
			}
			dirKey := key + "/"
			if !strings.HasPrefix(dirKey, prefix) && !strings.HasPrefix(prefix, dirKey) {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errs.Wrap(err)
	}

	sort.Strings(keys)
	return keys, nil
}
