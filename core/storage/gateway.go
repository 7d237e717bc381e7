package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
)

// ErrNotFound is returned by gateways when no file exists at the requested path.
// It is an expected signal, not a failure.
var ErrNotFound = errors.New("storage: file not found")

// Gateway is the byte level contract the exchange engine relies on.
// Paths are POSIX-style and relative to the gateway root.
// Implementations do not retry; callers decide what a failure means.
type Gateway interface {
	// Get returns the content stored at path, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)
	// Put stores data at path, replacing any previous content.
	Put(ctx context.Context, path string, data []byte) error
}

// S3Gateway stores exchange files as objects in a single bucket.
type S3Gateway struct {
	client Client
	bucket string
}

// NewS3Gateway creates a gateway over the given client and bucket.
func NewS3Gateway(client Client, bucket string) *S3Gateway {
	return &S3Gateway{client: client, bucket: bucket}
}

// Get downloads the object at path.
func (g *S3Gateway) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := g.client.GetObject(ctx, g.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateS3Error(path, err)
	}
	defer obj.Close()

	// minio defers the request until the first read, so a missing key surfaces here.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, translateS3Error(path, err)
	}
	return data, nil
}

// Put uploads data to path.
func (g *S3Gateway) Put(ctx context.Context, path string, data []byte) error {
	_, err := g.client.PutObject(ctx, g.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", path, err)
	}
	return nil
}

func translateS3Error(path string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("failed to get %s: %w", path, err)
}
