package operations

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"golang.org/x/sync/errgroup"

	arrowops "github.com/alekLukanen/SparkifyLake/arrowOps"
	"github.com/alekLukanen/SparkifyLake/elements"
	"github.com/alekLukanen/SparkifyLake/storage"
)

type ReadSourceOptions struct {
	Concurrency int
}

// ListSourceKeys returns the sorted keys below the location that match the
// source glob.
func ListSourceKeys(
	ctx context.Context,
	objectStorage storage.IObjectStorage,
	location storage.Location,
	source elements.Source,
) ([]string, error) {
	globPrefix := storage.GlobPrefix(source.Glob)
	listPrefix := location.Join(globPrefix)
	if strings.HasSuffix(globPrefix, "/") {
		listPrefix += "/"
	}
	keys, err := objectStorage.ListObjects(ctx, location.Bucket, listPrefix)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed listing source %s", source.Name))
	}

	matched := make([]string, 0, len(keys))
	for _, key := range keys {
		rel, ok := location.Relative(key)
		if !ok {
			continue
		}
		isMatch, err := storage.MatchGlob(source.Glob, rel)
		if err != nil {
			return nil, err
		}
		if isMatch {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)
	return matched, nil
}

/*
* Reads every JSON file of the source into one record. Files are downloaded
* and decoded concurrently, the result keeps the file order.
 */
func ReadSource(
	ctx context.Context,
	logger *slog.Logger,
	mem *memory.GoAllocator,
	objectStorage storage.IObjectStorage,
	location storage.Location,
	source elements.Source,
	options ReadSourceOptions,
) (arrow.Record, error) {
	if err := source.IsValid(); err != nil {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("source %s", source.Name)), err)
	}

	keys, err := ListSourceKeys(ctx, objectStorage, location, source)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("source %s glob %s in %s", source.Name, source.Glob, location)), ErrNoInputFiles)
	}
	logger.Info("reading source", slog.String("source", source.Name), slog.Int("files", len(keys)))

	schema := source.Schema()
	records := make([]arrow.Record, len(keys))
	defer func() {
		for _, rec := range records {
			if rec != nil {
				rec.Release()
			}
		}
	}()

	concurrency := options.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for idx, key := range keys {
		group.Go(func() error {
			data, err := objectStorage.Download(groupCtx, location.Bucket, key)
			if err != nil {
				return errs.Wrap(err, fmt.Errorf("failed downloading %s", key))
			}
			rec, err := arrowops.ReadJSONRecord(mem, bytes.NewReader(data), schema)
			if err != nil {
				return errs.Wrap(errs.NewStackError(fmt.Errorf("key %s", key)), ErrDecodeFailed, err)
			}
			records[idx] = rec
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result, err := arrowops.ConcatenateRecords(mem, records...)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed combining source %s", source.Name))
	}
	logger.Info(
		"read source",
		slog.String("source", source.Name),
		slog.Int("files", len(keys)),
		slog.Int64("rows", result.NumRows()),
	)
	return result, nil
}
