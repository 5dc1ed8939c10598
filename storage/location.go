package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/alekLukanen/errs"
)

const (
	SchemeS3   = "s3"
	SchemeFile = "file"
)

// Location is a parsed input or output root. For S3 the bucket is the S3
// bucket, for the local filesystem it is the root directory and the prefix
// is empty.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParseLocation accepts s3://, s3a://, s3n://, file:// and bare paths.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, errs.Wrap(errs.NewStackError(fmt.Errorf("empty location")), ErrInvalidLocation)
	}

	scheme, rest, hasScheme := strings.Cut(raw, "://")
	if !hasScheme {
		return Location{Scheme: SchemeFile, Bucket: filepath.Clean(raw)}, nil
	}

	switch strings.ToLower(scheme) {
	case "s3", "s3a", "s3n":
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Location{}, errs.Wrap(errs.NewStackError(fmt.Errorf("missing bucket in %s", raw)), ErrInvalidLocation)
		}
		return Location{Scheme: SchemeS3, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
	case "file":
		if rest == "" {
			return Location{}, errs.Wrap(errs.NewStackError(fmt.Errorf("missing path in %s", raw)), ErrInvalidLocation)
		}
		return Location{Scheme: SchemeFile, Bucket: filepath.Clean(rest)}, nil
	default:
		return Location{}, errs.Wrap(errs.NewStackError(fmt.Errorf("scheme %s", scheme)), ErrUnsupportedScheme)
	}
}

func (obj Location) IsLocal() bool {
	return obj.Scheme == SchemeFile
}

// Join builds an object key below the location prefix.
func (obj Location) Join(elem ...string) string {
	return strings.TrimPrefix(path.Join(append([]string{obj.Prefix}, elem...)...), "/")
}

// Relative strips the location prefix from a key.
func (obj Location) Relative(key string) (string, bool) {
	if obj.Prefix == "" {
		return key, true
	}
	prefix := obj.Prefix + "/"
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return strings.TrimPrefix(key, prefix), true
}

func (obj Location) String() string {
	if obj.IsLocal() {
		return obj.Bucket
	}
	if obj.Prefix == "" {
		return fmt.Sprintf("s3://%s/", obj.Bucket)
	}
	return fmt.Sprintf("s3://%s/%s/", obj.Bucket, obj.Prefix)
}

// NewObjectStorageForLocation returns the storage that serves the location.
func NewObjectStorageForLocation(
	ctx context.Context,
	logger *slog.Logger,
	location Location,
	options ObjectStorageOptions,
) (IObjectStorage, error) {
	switch location.Scheme {
	case SchemeFile:
		return NewLocalObjectStorage(logger), nil
	case SchemeS3:
		return NewObjectStorage(ctx, logger, options)
	default:
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("scheme %s", location.Scheme)), ErrUnsupportedScheme)
	}
}
