package indexer

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasnim.dev/datalake-indexer/internal/aws/s3"
	"tasnim.dev/datalake-indexer/internal/config"
	"tasnim.dev/datalake-indexer/internal/index"
	"tasnim.dev/datalake-indexer/internal/table"
)

type fakeStorage struct {
	listings map[string]map[string]s3.ListingEntry // bucket -> key -> entry
	listErr  error
	putErr   error
	objects  map[string][]byte // "bucket/key" -> body
	lists    []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		listings: map[string]map[string]s3.ListingEntry{},
		objects:  map[string][]byte{},
	}
}

func (f *fakeStorage) ListAll(ctx context.Context, bucket, prefix string) (map[string]s3.ListingEntry, error) {
	f.lists = append(f.lists, bucket+"/"+prefix)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := map[string]s3.ListingEntry{}
	for k, v := range f.listings[bucket] {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out[k] = v
		}
	}
	return out, nil
}

func (f *fakeStorage) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[bucket+"/"+key] = body
	return nil
}

func i64(n int64) *int64 { return &n }

func testConfig() config.Config {
	return config.Config{
		BucketSource: "raw",
		BucketTarget: "idx",
		PrefixSource: "",
		PrefixTarget: "indexes/",
		ItemName:     "logs",
		Workers:      2,
	}
}

func readBack(t *testing.T, data []byte) *table.ReadResult {
	t.Helper()
	got, err := table.Read(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	return got
}

func TestOutputKey(t *testing.T) {
	assert.Equal(t,
		"indexes/logs/id=1234-table=data_indexer.parquet",
		OutputKey("indexes/", "logs", "1234"))
	assert.Equal(t,
		"logs/id=abc-table=data_indexer.parquet",
		OutputKey("", "logs", "abc"))
}

func TestRun_Scenario(t *testing.T) {
	store := newFakeStorage()
	store.listings["raw"] = map[string]s3.ListingEntry{
		"logs/2024/a.csv":   {Size: i64(100), LastModified: i64(1700000000)},
		"logs/2024/b.csv":   {Size: i64(0)},
		"metrics/other.csv": {Size: i64(5)},
	}

	ix := New(store, WithIDFunc(func() string { return "run-1" }))
	res, err := ix.Run(context.Background(), testConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"raw/logs"}, store.lists)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "idx", res.Bucket)
	assert.Equal(t, "indexes/logs/id=run-1-table=data_indexer.parquet", res.Key)
	assert.Equal(t, 2, res.Objects)
	assert.Equal(t, int64(2), res.Rows)
	assert.True(t, res.Written)

	data, ok := store.objects["idx/"+res.Key]
	require.True(t, ok, "index object should be stored")
	assert.Equal(t, len(data), res.Bytes)

	got := readBack(t, data)
	assert.Equal(t, 1, got.NumRowGroups)
	require.Len(t, got.Records, 2)

	recs := got.Records
	sort.Slice(recs, func(i, j int) bool { return *recs[i].FileName < *recs[j].FileName })

	a, b := recs[0], recs[1]
	assert.Equal(t, "a.csv", *a.FileName)
	assert.Equal(t, "logs/2024", *a.FilePath)
	assert.Equal(t, "s3://raw/logs/2024/a.csv", a.FileURL)
	require.NotNil(t, a.DtFmt)
	assert.Equal(t, time.Unix(1700000000, 0).UTC().Format(index.TimestampLayout), *a.DtFmt)

	assert.Equal(t, "b.csv", *b.FileName)
	assert.Equal(t, "logs/2024", *b.FilePath)
	assert.Nil(t, b.Dt)
	assert.Nil(t, b.DtFmt)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, res.RunID, a.ID)
	assert.NotEqual(t, res.RunID, b.ID)
}

func TestRun_EmptySourceWritesEmptyTable(t *testing.T) {
	store := newFakeStorage()

	res, err := New(store).Run(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Rows)
	assert.True(t, res.Written)

	got := readBack(t, store.objects["idx/"+res.Key])
	assert.Equal(t, int64(0), got.NumRows)
	assert.Len(t, got.Schema.Fields(), 8)
}

func TestRun_ConsecutiveRunsNeverOverwrite(t *testing.T) {
	store := newFakeStorage()
	store.listings["raw"] = map[string]s3.ListingEntry{"logs/x.json": {Size: i64(1)}}
	ix := New(store)

	first, err := ix.Run(context.Background(), testConfig())
	require.NoError(t, err)
	second, err := ix.Run(context.Background(), testConfig())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotEqual(t, first.Key, second.Key)
	assert.Len(t, store.objects, 2)
}

func TestRun_ListErrorWritesNothing(t *testing.T) {
	store := newFakeStorage()
	listErr := &s3.StorageListError{Bucket: "raw", Prefix: "logs", Code: "AccessDenied", Err: errors.New("denied")}
	store.listErr = listErr

	res, err := New(store).Run(context.Background(), testConfig())
	require.Error(t, err)

	var got *s3.StorageListError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "AccessDenied", got.Code)
	assert.Empty(t, store.objects)
	assert.False(t, res.Written)
	assert.NotEmpty(t, res.RunID)
}

func TestRun_BadTimestampWritesNothing(t *testing.T) {
	store := newFakeStorage()
	store.listings["raw"] = map[string]s3.ListingEntry{
		"logs/good.csv": {LastModified: i64(1700000000)},
		"logs/bad.csv":  {LastModified: i64(math.MaxInt64)},
	}

	_, err := New(store).Run(context.Background(), testConfig())
	var rangeErr *index.TimestampRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "logs/bad.csv", rangeErr.Key)
	assert.Empty(t, store.objects)
}

func TestRun_WriteError(t *testing.T) {
	store := newFakeStorage()
	store.putErr = &s3.StorageWriteError{Bucket: "idx", Key: "k", Err: errors.New("slow down")}

	res, err := New(store).Run(context.Background(), testConfig())
	var writeErr *s3.StorageWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.False(t, res.Written)
	assert.Greater(t, res.Bytes, 0)
}

func TestRun_DryRun(t *testing.T) {
	store := newFakeStorage()
	store.listings["raw"] = map[string]s3.ListingEntry{"logs/x.json": {Size: i64(1)}}

	res, err := New(store, WithDryRun(true)).Run(context.Background(), testConfig())
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.NotEmpty(t, res.Key)
	assert.Equal(t, int64(1), res.Rows)
	assert.Empty(t, store.objects)
}

func TestRun_CancelledWritesNothing(t *testing.T) {
	store := newFakeStorage()
	store.listings["raw"] = map[string]s3.ListingEntry{"logs/x.json": {Size: i64(1)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(store).Run(ctx, testConfig())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.objects)
}

func TestRun_Elapsed(t *testing.T) {
	store := newFakeStorage()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 2 * time.Second)
	}

	res, err := New(store, WithClock(clock)).Run(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, start, res.StartedAt)
	assert.Equal(t, 2*time.Second, res.Elapsed)
}

func TestUniqueRunID(t *testing.T) {
	ids := []string{"taken", "also-taken", "free"}
	next := 0
	ix := New(newFakeStorage(), WithIDFunc(func() string {
		id := ids[next]
		next++
		return id
	}))

	records := []index.FileRecord{{ID: "taken"}, {ID: "also-taken"}}
	first := ix.newID()
	assert.Equal(t, "free", ix.uniqueRunID(first, records))
}
