package s3

import "time"

// S3Object is one object from a listing page.
type S3Object struct {
	Key          string
	Size         *int64
	LastModified *time.Time
	StorageClass string
}

// Entry converts the listing fields the indexer keeps into a ListingEntry.
func (o S3Object) Entry() ListingEntry {
	e := ListingEntry{Size: o.Size}
	if o.LastModified != nil {
		sec := o.LastModified.Unix()
		e.LastModified = &sec
	}
	return e
}

// ListObjectsResult is a single ListObjectsV2 page.
type ListObjectsResult struct {
	Objects   []S3Object
	NextToken string
}

// ListingEntry is the size and last-modified time (epoch seconds) reported
// for one key. Either value may be absent.
type ListingEntry struct {
	Size         *int64
	LastModified *int64
}
