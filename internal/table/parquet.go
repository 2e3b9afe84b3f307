package table

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/file"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"

	"tasnim.dev/datalake-indexer/internal/index"
)

const createdBy = "datalake-indexer"

// Serialize encodes the table as a Snappy-compressed Parquet file holding a
// single row group.
func Serialize(t *IndexTable) ([]byte, error) {
	var buf bytes.Buffer

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithMaxRowGroupLength(max(t.NumRows(), 1)),
		parquet.WithCreatedBy(createdBy),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	w, err := pqarrow.NewFileWriter(t.Schema(), &buf, props, arrowProps)
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	if err := w.Write(t.Record()); err != nil {
		_ = w.Close()
		return nil, &SerializationError{Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &SerializationError{Err: err}
	}

	return buf.Bytes(), nil
}

// ReadResult is a decoded index file.
type ReadResult struct {
	Schema       *arrow.Schema
	NumRows      int64
	NumRowGroups int
	CreatedBy    string
	Records      []index.FileRecord
}

// Read decodes an index file produced by Serialize.
func Read(ctx context.Context, r parquet.ReaderAtSeeker) (*ReadResult, error) {
	pf, err := file.NewParquetReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening parquet: %w", err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("opening parquet: %w", err)
	}

	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading parquet: %w", err)
	}
	defer tbl.Release()

	records, err := decode(tbl)
	if err != nil {
		return nil, err
	}

	return &ReadResult{
		Schema:       tbl.Schema(),
		NumRows:      tbl.NumRows(),
		NumRowGroups: pf.NumRowGroups(),
		CreatedBy:    pf.MetaData().GetCreatedBy(),
		Records:      records,
	}, nil
}

func decode(tbl arrow.Table) ([]index.FileRecord, error) {
	idx := make(map[string]int, len(Schema.Fields()))
	for _, f := range Schema.Fields() {
		found := tbl.Schema().FieldIndices(f.Name)
		if len(found) != 1 {
			return nil, fmt.Errorf("index file has no %q column", f.Name)
		}
		idx[f.Name] = found[0]
	}

	records := make([]index.FileRecord, 0, tbl.NumRows())
	tr := array.NewTableReader(tbl, 4096)
	defer tr.Release()

	for tr.Next() {
		rec := tr.Record()
		str := func(col string) (*array.String, error) {
			a, ok := rec.Column(idx[col]).(*array.String)
			if !ok {
				return nil, fmt.Errorf("column %q has type %s", col, rec.Column(idx[col]).DataType())
			}
			return a, nil
		}
		i64 := func(col string) (*array.Int64, error) {
			a, ok := rec.Column(idx[col]).(*array.Int64)
			if !ok {
				return nil, fmt.Errorf("column %q has type %s", col, rec.Column(idx[col]).DataType())
			}
			return a, nil
		}

		ids, err := str(ColID)
		if err != nil {
			return nil, err
		}
		names, err := str(ColFileName)
		if err != nil {
			return nil, err
		}
		types, err := str(ColFileType)
		if err != nil {
			return nil, err
		}
		sizes, err := i64(ColFileSize)
		if err != nil {
			return nil, err
		}
		paths, err := str(ColFilePath)
		if err != nil {
			return nil, err
		}
		urls, err := str(ColFileURL)
		if err != nil {
			return nil, err
		}
		dts, err := i64(ColDt)
		if err != nil {
			return nil, err
		}
		dtFmts, err := str(ColDtFmt)
		if err != nil {
			return nil, err
		}

		for i := 0; i < int(rec.NumRows()); i++ {
			records = append(records, index.FileRecord{
				ID:       strings.Clone(ids.Value(i)),
				FileName: stringAt(names, i),
				FileType: stringAt(types, i),
				FileSize: int64At(sizes, i),
				FilePath: stringAt(paths, i),
				FileURL:  strings.Clone(urls.Value(i)),
				Dt:       int64At(dts, i),
				DtFmt:    stringAt(dtFmts, i),
			})
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("reading parquet: %w", err)
	}

	return records, nil
}

func stringAt(a *array.String, i int) *string {
	if a.IsNull(i) {
		return nil
	}
	s := strings.Clone(a.Value(i))
	return &s
}

func int64At(a *array.Int64, i int) *int64 {
	if a.IsNull(i) {
		return nil
	}
	n := a.Value(i)
	return &n
}
