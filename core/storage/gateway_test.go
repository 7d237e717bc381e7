package storage_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"testing/iotest"

	"edi-exchange/core/storage"
	"edi-exchange/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestS3Gateway_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "edi", "out/done/a.csv", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte("payload"))), nil)

		data, err := storage.NewS3Gateway(client, "edi").Get(ctx, "out/done/a.csv")
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	})

	t.Run("NotFoundOnRead", func(t *testing.T) {
		client := new(mocks.Client)
		notFound := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
		client.On("GetObject", mock.Anything, "edi", "out/done/a.csv", mock.Anything).
			Return(io.NopCloser(iotest.ErrReader(notFound)), nil)

		_, err := storage.NewS3Gateway(client, "edi").Get(ctx, "out/done/a.csv")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("NotFoundOnOpen", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "edi", "x", mock.Anything).
			Return(nil, minio.ErrorResponse{StatusCode: http.StatusNotFound})

		_, err := storage.NewS3Gateway(client, "edi").Get(ctx, "x")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("TransportError", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "edi", "x", mock.Anything).Return(nil, assert.AnError)

		_, err := storage.NewS3Gateway(client, "edi").Get(ctx, "x")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestS3Gateway_Put(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "edi", "out/pending/a.csv", mock.Anything, int64(7), mock.Anything).
		Return(minio.UploadInfo{}, nil).Once()
	client.On("PutObject", mock.Anything, "edi", "out/pending/b.csv", mock.Anything, int64(0), mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError).Once()

	gw := storage.NewS3Gateway(client, "edi")
	assert.NoError(t, gw.Put(context.Background(), "out/pending/a.csv", []byte("payload")))
	assert.ErrorIs(t, gw.Put(context.Background(), "out/pending/b.csv", nil), assert.AnError)
	client.AssertExpectations(t)
}

func TestFSGateway(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	gw := storage.NewFSGateway(fs, "/srv/edi")

	_, err := gw.Get(ctx, "out/done/a.csv")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, gw.Put(ctx, "out/pending/a.csv", []byte("payload")))

	data, err := gw.Get(ctx, "out/pending/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// Files land under the configured root.
	exists, err := afero.Exists(fs, "/srv/edi/out/pending/a.csv")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, gw.Put(ctx, "root.csv", []byte("x")))
	_, err = gw.Get(ctx, "root.csv")
	assert.NoError(t, err)
}

func TestFSGateway_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := storage.NewFSGateway(afero.NewMemMapFs(), "")
	assert.ErrorIs(t, gw.Put(ctx, "a", []byte("x")), context.Canceled)
	_, err := gw.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
