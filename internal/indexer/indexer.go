// Package indexer runs one indexing pass: list the source prefix, derive a
// record per object, build the table and store it as Parquet in the target bucket.
package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tasnim.dev/datalake-indexer/internal/aws/s3"
	"tasnim.dev/datalake-indexer/internal/config"
	"tasnim.dev/datalake-indexer/internal/constants"
	"tasnim.dev/datalake-indexer/internal/index"
	"tasnim.dev/datalake-indexer/internal/table"
)

// Storage is the object store the indexer reads from and writes to.
type Storage interface {
	ListAll(ctx context.Context, bucket, prefix string) (map[string]s3.ListingEntry, error)
	PutObject(ctx context.Context, bucket, key string, body []byte) error
}

// Result describes a finished (or failed) run.
type Result struct {
	RunID     string
	Bucket    string
	Key       string
	Objects   int
	Rows      int64
	Bytes     int
	Written   bool
	StartedAt time.Time
	Elapsed   time.Duration
}

type Indexer struct {
	storage Storage
	logger  *slog.Logger
	dryRun  bool
	newID   func() string
	now     func() time.Time
}

type Option func(*Indexer)

func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) { ix.logger = l }
}

// WithDryRun builds and serializes the table but skips the upload.
func WithDryRun(dryRun bool) Option {
	return func(ix *Indexer) { ix.dryRun = dryRun }
}

// WithIDFunc replaces the run ID generator.
func WithIDFunc(f func() string) Option {
	return func(ix *Indexer) { ix.newID = f }
}

func WithClock(now func() time.Time) Option {
	return func(ix *Indexer) { ix.now = now }
}

func New(storage Storage, opts ...Option) *Indexer {
	ix := &Indexer{
		storage: storage,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// OutputKey returns the object key for a run's index file.
func OutputKey(prefixTarget, itemName, runID string) string {
	return fmt.Sprintf("%s%s/id=%s-table=%s.parquet", prefixTarget, itemName, runID, constants.TableName)
}

// Run executes one indexing pass. Nothing is written unless every step
// succeeds. The returned Result carries the run ID and timing even on error.
func (ix *Indexer) Run(ctx context.Context, cfg config.Config) (res Result, err error) {
	started := ix.now()
	res = Result{
		RunID:     ix.newID(),
		Bucket:    cfg.BucketTarget,
		StartedAt: started,
	}
	defer func() { res.Elapsed = ix.now().Sub(started) }()

	prefix := cfg.SourcePrefix()
	ix.logger.Info("start running indexer", "run_id", res.RunID, "source", index.ObjectURL(cfg.BucketSource, prefix))

	entries, err := ix.storage.ListAll(ctx, cfg.BucketSource, prefix)
	if err != nil {
		return res, fmt.Errorf("listing source objects: %w", err)
	}
	res.Objects = len(entries)
	ix.logger.Info("listed source objects", "objects", len(entries))

	records, err := index.ExtractAll(ctx, cfg.BucketSource, entries, cfg.Workers)
	if err != nil {
		return res, err
	}

	// The run ID must not coincide with any record ID.
	res.RunID = ix.uniqueRunID(res.RunID, records)
	res.Key = OutputKey(cfg.PrefixTarget, cfg.ItemName, res.RunID)

	tbl, err := table.Assemble(records)
	if err != nil {
		return res, err
	}
	defer tbl.Release()
	res.Rows = tbl.NumRows()
	ix.logger.Debug("assembled index table", "rows", tbl.NumRows(), "columns", tbl.NumCols())

	data, err := table.Serialize(tbl)
	if err != nil {
		return res, err
	}
	res.Bytes = len(data)

	if err := ctx.Err(); err != nil {
		return res, err
	}

	if ix.dryRun {
		ix.logger.Info("dry run, skipping upload", "bucket", res.Bucket, "key", res.Key, "bytes", res.Bytes)
		return res, nil
	}

	if err := ix.storage.PutObject(ctx, cfg.BucketTarget, res.Key, data); err != nil {
		return res, fmt.Errorf("writing index: %w", err)
	}
	res.Written = true
	ix.logger.Info("wrote index", "bucket", res.Bucket, "key", res.Key, "rows", res.Rows, "bytes", res.Bytes)

	return res, nil
}

func (ix *Indexer) uniqueRunID(id string, records []index.FileRecord) string {
	taken := make(map[string]struct{}, len(records))
	for _, r := range records {
		taken[r.ID] = struct{}{}
	}
	for {
		if _, ok := taken[id]; !ok {
			return id
		}
		id = ix.newID()
	}
}
