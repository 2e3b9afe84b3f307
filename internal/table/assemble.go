package table

import (
	"fmt"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"

	"tasnim.dev/datalake-indexer/internal/index"
)

// IndexTable is the in-memory columnar form of one run's records.
// It must not be modified; call Release when done.
type IndexTable struct {
	rec arrow.Record
}

func (t *IndexTable) Schema() *arrow.Schema { return t.rec.Schema() }

func (t *IndexTable) NumRows() int64 { return t.rec.NumRows() }

func (t *IndexTable) NumCols() int64 { return t.rec.NumCols() }

// Record returns the underlying Arrow record. The table keeps ownership.
func (t *IndexTable) Record() arrow.Record { return t.rec }

func (t *IndexTable) Release() {
	if t.rec != nil {
		t.rec.Release()
		t.rec = nil
	}
}

// Assemble builds one table from records, preserving their order as row order.
// An empty slice yields a zero-row table with the full schema.
func Assemble(records []index.FileRecord) (*IndexTable, error) {
	return assembleWith(memory.DefaultAllocator, records)
}

func assembleWith(mem memory.Allocator, records []index.FileRecord) (*IndexTable, error) {
	b := array.NewRecordBuilder(mem, Schema)
	defer b.Release()
	b.Reserve(len(records))

	ids, err := stringBuilder(b, ColID)
	if err != nil {
		return nil, err
	}
	names, err := stringBuilder(b, ColFileName)
	if err != nil {
		return nil, err
	}
	types, err := stringBuilder(b, ColFileType)
	if err != nil {
		return nil, err
	}
	sizes, err := int64Builder(b, ColFileSize)
	if err != nil {
		return nil, err
	}
	paths, err := stringBuilder(b, ColFilePath)
	if err != nil {
		return nil, err
	}
	urls, err := stringBuilder(b, ColFileURL)
	if err != nil {
		return nil, err
	}
	dts, err := int64Builder(b, ColDt)
	if err != nil {
		return nil, err
	}
	dtFmts, err := stringBuilder(b, ColDtFmt)
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		ids.Append(r.ID)
		appendString(names, r.FileName)
		appendString(types, r.FileType)
		appendInt64(sizes, r.FileSize)
		appendString(paths, r.FilePath)
		urls.Append(r.FileURL)
		appendInt64(dts, r.Dt)
		appendString(dtFmts, r.DtFmt)
	}

	return &IndexTable{rec: b.NewRecord()}, nil
}

func stringBuilder(b *array.RecordBuilder, col string) (*array.StringBuilder, error) {
	fb, err := field(b, col)
	if err != nil {
		return nil, err
	}
	sb, ok := fb.(*array.StringBuilder)
	if !ok {
		return nil, &SchemaBuildError{Column: col, Err: fmt.Errorf("want string builder, got %T", fb)}
	}
	return sb, nil
}

func int64Builder(b *array.RecordBuilder, col string) (*array.Int64Builder, error) {
	fb, err := field(b, col)
	if err != nil {
		return nil, err
	}
	ib, ok := fb.(*array.Int64Builder)
	if !ok {
		return nil, &SchemaBuildError{Column: col, Err: fmt.Errorf("want int64 builder, got %T", fb)}
	}
	return ib, nil
}

func field(b *array.RecordBuilder, col string) (array.Builder, error) {
	idx := b.Schema().FieldIndices(col)
	if len(idx) != 1 {
		return nil, &SchemaBuildError{Column: col, Err: fmt.Errorf("column appears %d times in schema", len(idx))}
	}
	return b.Field(idx[0]), nil
}

func appendString(b *array.StringBuilder, v *string) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}

func appendInt64(b *array.Int64Builder, v *int64) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}
