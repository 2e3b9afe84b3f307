package table

import "fmt"

// SchemaBuildError reports a column whose values could not be built under the fixed schema.
type SchemaBuildError struct {
	Column string
	Err    error
}

func (e *SchemaBuildError) Error() string {
	return fmt.Sprintf("building column %q: %v", e.Column, e.Err)
}

func (e *SchemaBuildError) Unwrap() error {
	return e.Err
}

// SerializationError reports a failure encoding the table as Parquet.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serializing index table: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
