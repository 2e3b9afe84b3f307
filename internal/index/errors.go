package index

import "fmt"

// TimestampRangeError reports a last-modified value that cannot be rendered
// as a calendar date.
type TimestampRangeError struct {
	Key   string
	Epoch int64
}

func (e *TimestampRangeError) Error() string {
	return fmt.Sprintf("timestamp %d for key %q is outside the supported range (years 0001-9999)", e.Epoch, e.Key)
}
