package index

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tasnim.dev/datalake-indexer/internal/aws/s3"
	"tasnim.dev/datalake-indexer/internal/constants"
	"tasnim.dev/datalake-indexer/internal/utils"
)

// TimestampLayout is the UTC rendering used for dt_fmt.
const TimestampLayout = utils.DateTimeSec

var (
	minEpoch = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxEpoch = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// Extract builds the record for a single listed key.
func Extract(bucket, key string, entry s3.ListingEntry) (FileRecord, error) {
	name, ext, parent := splitKey(key)

	rec := FileRecord{
		ID:       uuid.NewString(),
		FileName: name,
		FileType: ext,
		FilePath: parent,
		FileSize: entry.Size,
		FileURL:  ObjectURL(bucket, key),
		Dt:       entry.LastModified,
	}

	if entry.LastModified != nil {
		s, err := FormatTimestamp(key, *entry.LastModified)
		if err != nil {
			return FileRecord{}, err
		}
		rec.DtFmt = &s
	}

	return rec, nil
}

// ExtractAll derives records for every entry using up to workers goroutines.
// Records are returned sorted by key. The first failure cancels the rest.
func ExtractAll(ctx context.Context, bucket string, entries map[string]s3.ListingEntry, workers int) ([]FileRecord, error) {
	if workers < 1 {
		workers = constants.DefaultWorkers
	}

	keys := slices.Sorted(maps.Keys(entries))
	records := make([]FileRecord, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, key := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := Extract(bucket, key, entries[key])
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extracting metadata: %w", err)
	}
	return records, nil
}

// ObjectURL returns the s3:// reference for key in bucket.
func ObjectURL(bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s", constants.URLScheme, bucket, key)
}

// FormatTimestamp renders epoch seconds as a UTC calendar time. Values outside
// years 0001-9999 fail rather than being clamped.
func FormatTimestamp(key string, epoch int64) (string, error) {
	if epoch < minEpoch || epoch > maxEpoch {
		return "", &TimestampRangeError{Key: key, Epoch: epoch}
	}
	return time.Unix(epoch, 0).UTC().Format(TimestampLayout), nil
}

// splitKey treats key as a "/"-separated path and returns its final segment,
// the extension of that segment and the parent path. Trailing separators are
// ignored, so a folder marker like "a/b/" yields name "b" and parent "a".
func splitKey(key string) (name, ext, parent *string) {
	trimmed := strings.TrimRight(key, "/")
	if trimmed == "" {
		return nil, nil, nil
	}

	i := strings.LastIndex(trimmed, "/")
	n := trimmed[i+1:]
	name = &n

	if j := strings.LastIndex(n, "."); j >= 0 {
		e := n[j+1:]
		ext = &e
	}

	if i >= 0 {
		p := strings.TrimRight(trimmed[:i], "/")
		if p == "" {
			p = "/"
		}
		parent = &p
	}

	return name, ext, parent
}
