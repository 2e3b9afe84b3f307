package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasnim.dev/datalake-indexer/internal/aws/s3"
)

func i64(n int64) *int64 { return &n }

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key    string
		name   any
		ext    any
		parent any
	}{
		{"a/b/c.txt", "c.txt", "txt", "a/b"},
		{"c.txt", "c.txt", "txt", nil},
		{"README", "README", nil, nil},
		{"logs/2024/README", "README", nil, "logs/2024"},
		{"archive/data.tar.gz", "data.tar.gz", "gz", "archive"},
		{"dir/file.", "file.", "", "dir"},
		{"dir/.env", ".env", "env", "dir"},
		{"logs/2024/", "2024", nil, "logs"},
		{"/rooted.csv", "rooted.csv", "csv", "/"},
		{"a//b.txt", "b.txt", "txt", "a"},
		{"", nil, nil, nil},
		{"/", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.key), func(t *testing.T) {
			name, ext, parent := splitKey(tt.key)
			assert.Equal(t, tt.name, deref(name), "fileName")
			assert.Equal(t, tt.ext, deref(ext), "fileType")
			assert.Equal(t, tt.parent, deref(parent), "filePath")
		})
	}
}

func TestExtract_Scenario(t *testing.T) {
	a, err := Extract("raw", "logs/2024/a.csv", s3.ListingEntry{Size: i64(100), LastModified: i64(1700000000)})
	require.NoError(t, err)
	b, err := Extract("raw", "logs/2024/b.csv", s3.ListingEntry{Size: i64(0)})
	require.NoError(t, err)

	assert.Equal(t, "a.csv", *a.FileName)
	assert.Equal(t, "csv", *a.FileType)
	assert.Equal(t, "logs/2024", *a.FilePath)
	assert.Equal(t, int64(100), *a.FileSize)
	assert.Equal(t, "s3://raw/logs/2024/a.csv", a.FileURL)
	assert.Equal(t, int64(1700000000), *a.Dt)
	require.NotNil(t, a.DtFmt)
	assert.Equal(t, "2023-11-14 22:13:20", *a.DtFmt)

	assert.Equal(t, "b.csv", *b.FileName)
	assert.Equal(t, "logs/2024", *b.FilePath)
	assert.Equal(t, int64(0), *b.FileSize)
	assert.Nil(t, b.Dt)
	assert.Nil(t, b.DtFmt)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestExtract_AbsentSize(t *testing.T) {
	rec, err := Extract("raw", "x.bin", s3.ListingEntry{})
	require.NoError(t, err)
	assert.Nil(t, rec.FileSize)
	assert.Nil(t, rec.Dt)
	assert.Nil(t, rec.DtFmt)
	assert.Nil(t, rec.FilePath)
}

func TestExtract_IDIsUUID(t *testing.T) {
	rec, err := Extract("raw", "k", s3.ListingEntry{})
	require.NoError(t, err)
	_, err = uuid.Parse(rec.ID)
	assert.NoError(t, err)
}

func TestExtract_TimestampRoundTrip(t *testing.T) {
	for _, epoch := range []int64{0, 1, 951782400, 1700000000, -86400, 253402300799} {
		rec, err := Extract("raw", "k.txt", s3.ListingEntry{LastModified: i64(epoch)})
		require.NoError(t, err)
		require.NotNil(t, rec.DtFmt)

		parsed, err := time.ParseInLocation(TimestampLayout, *rec.DtFmt, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, epoch, parsed.Unix(), "round trip of %d", epoch)
	}
}

func TestExtract_TimestampOutOfRange(t *testing.T) {
	for _, epoch := range []int64{math.MaxInt64, math.MinInt64, 253402300800} {
		_, err := Extract("raw", "bad/key.csv", s3.ListingEntry{LastModified: i64(epoch)})
		var rangeErr *TimestampRangeError
		require.True(t, errors.As(err, &rangeErr), "epoch %d: want TimestampRangeError, got %v", epoch, err)
		assert.Equal(t, "bad/key.csv", rangeErr.Key)
		assert.Equal(t, epoch, rangeErr.Epoch)
		assert.Contains(t, err.Error(), "bad/key.csv")
	}
}

func TestExtractAll(t *testing.T) {
	entries := map[string]s3.ListingEntry{}
	for i := range 250 {
		entries[fmt.Sprintf("data/part-%04d.parquet", i)] = s3.ListingEntry{Size: i64(int64(i)), LastModified: i64(1700000000 + int64(i))}
	}

	records, err := ExtractAll(context.Background(), "raw", entries, 4)
	require.NoError(t, err)
	require.Len(t, records, 250)

	ids := make(map[string]struct{}, len(records))
	for i, rec := range records {
		ids[rec.ID] = struct{}{}
		assert.Equal(t, fmt.Sprintf("part-%04d.parquet", i), *rec.FileName, "records are ordered by key")
		assert.Equal(t, int64(i), *rec.FileSize)
		assert.Equal(t, "data", *rec.FilePath)
	}
	assert.Len(t, ids, 250, "ids must be unique")
}

func TestExtractAll_Empty(t *testing.T) {
	records, err := ExtractAll(context.Background(), "raw", map[string]s3.ListingEntry{}, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractAll_FailsOnBadRecord(t *testing.T) {
	entries := map[string]s3.ListingEntry{
		"ok.csv":  {LastModified: i64(1700000000)},
		"bad.csv": {LastModified: i64(math.MaxInt64)},
	}

	records, err := ExtractAll(context.Background(), "raw", entries, 2)
	assert.Nil(t, records)
	var rangeErr *TimestampRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "bad.csv", rangeErr.Key)
}

func TestExtractAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExtractAll(ctx, "raw", map[string]s3.ListingEntry{"a": {}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
