package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"tasnim.dev/datalake-indexer/internal/constants"
)

type S3API interface {
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// PageHook is called after each listing page with the 1-based page number and
// the number of distinct keys collected so far.
type PageHook func(page, keys int)

type Option func(*Client)

// WithPageHook registers a callback invoked after every ListAll page.
func WithPageHook(h PageHook) Option {
	return func(c *Client) {
		c.pageHook = h
	}
}

type Client struct {
	api      S3API
	pageHook PageHook
}

func NewClient(api S3API, opts ...Option) *Client {
	c := &Client{api: api}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListObjects fetches a single page of objects under prefix.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix, continuationToken string) (ListObjectsResult, error) {
	if bucket == "" {
		return ListObjectsResult{}, &StorageListError{Prefix: prefix, Err: fmt.Errorf("%w: empty bucket name", ErrInvalidInput)}
	}

	input := &awss3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(constants.ListPageSize),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}

	out, err := c.api.ListObjectsV2(ctx, input)
	if err != nil {
		return ListObjectsResult{}, &StorageListError{Bucket: bucket, Prefix: prefix, Code: errorCode(err), Err: err}
	}

	objects := make([]S3Object, 0, len(out.Contents))
	for _, obj := range out.Contents {
		objects = append(objects, S3Object{
			Key:          aws.ToString(obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
			StorageClass: string(obj.StorageClass),
		})
	}

	result := ListObjectsResult{Objects: objects}
	if out.IsTruncated != nil && *out.IsTruncated {
		result.NextToken = aws.ToString(out.NextContinuationToken)
	}

	return result, nil
}

// ListAll walks every page under prefix and collapses the objects into a map
// keyed by object key. A key repeated on a later page replaces the earlier entry.
// No matching objects yields an empty map.
func (c *Client) ListAll(ctx context.Context, bucket, prefix string) (map[string]ListingEntry, error) {
	entries := make(map[string]ListingEntry)
	token := ""

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, &StorageListError{Bucket: bucket, Prefix: prefix, Err: err}
		}

		result, err := c.ListObjects(ctx, bucket, prefix, token)
		if err != nil {
			return nil, err
		}

		for _, obj := range result.Objects {
			entries[obj.Key] = obj.Entry()
		}

		if c.pageHook != nil {
			c.pageHook(page, len(entries))
		}

		if result.NextToken == "" {
			return entries, nil
		}
		token = result.NextToken
	}
}

// PutObject stores body at bucket/key in a single request.
func (c *Client) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	if bucket == "" || key == "" {
		return &StorageWriteError{Bucket: bucket, Key: key, Err: fmt.Errorf("%w: bucket and key are required", ErrInvalidInput)}
	}

	_, err := c.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(mimetype.Detect(body).String()),
	})
	if err != nil {
		return &StorageWriteError{Bucket: bucket, Key: key, Code: errorCode(err), Err: err}
	}
	return nil
}

// GetObject downloads an object into memory.
func (c *Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := c.api.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("GetObject: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}
