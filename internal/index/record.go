// Package index derives one FileRecord per listed object key.
package index

// FileRecord is one row of the index table. Nil pointers are absent values.
type FileRecord struct {
	ID       string
	FileName *string
	FileType *string
	FilePath *string
	FileSize *int64
	FileURL  string
	Dt       *int64
	DtFmt    *string
}
