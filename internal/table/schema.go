// Package table assembles file records into an Arrow record and encodes it as Parquet.
package table

import "github.com/apache/arrow/go/v15/arrow"

// Column names, in schema order.
const (
	ColID       = "id"
	ColFileName = "file_name"
	ColFileType = "file_type"
	ColFileSize = "file_size"
	ColFilePath = "file_path"
	ColFileURL  = "file_url"
	ColDt       = "dt"
	ColDtFmt    = "dt_fmt"
)

// Schema is the fixed layout of every index table.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: ColID, Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: ColFileName, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: ColFileType, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: ColFileSize, Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: ColFilePath, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: ColFileURL, Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: ColDt, Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: ColDtFmt, Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)
