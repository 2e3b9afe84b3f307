package s3

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ErrInvalidInput indicates a request that was rejected before reaching S3.
var ErrInvalidInput = errors.New("s3: invalid input")

// StorageListError is returned when enumerating a bucket fails.
type StorageListError struct {
	Bucket string
	Prefix string
	// Code is the S3 error code (e.g. "AccessDenied"), when the service returned one.
	Code string
	Err  error
}

func (e *StorageListError) Error() string {
	msg := fmt.Sprintf("ListObjectsV2 s3://%s/%s", e.Bucket, e.Prefix)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	return msg + ": " + e.Err.Error()
}

func (e *StorageListError) Unwrap() error {
	return e.Err
}

// StorageWriteError is returned when storing an object fails.
type StorageWriteError struct {
	Bucket string
	Key    string
	Code   string
	Err    error
}

func (e *StorageWriteError) Error() string {
	msg := fmt.Sprintf("PutObject s3://%s/%s", e.Bucket, e.Key)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	return msg + ": " + e.Err.Error()
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// errorCode extracts the service error code from an SDK error, or "".
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
