package storage_test

import (
	"testing"

	"edi-exchange/core/storage"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    false,
			Bucket:    "test-bucket",
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestRegistry(t *testing.T) {
	t.Run("DefaultKinds", func(t *testing.T) {
		reg := storage.NewDefaultRegistry(storage.Config{Endpoint: "localhost:9000", Root: "/data"}, afero.NewMemMapFs())
		assert.ElementsMatch(t, []string{storage.KindS3, storage.KindFS}, reg.Kinds())

		fsGw, err := reg.Open(" FS ", "/srv/partner")
		require.NoError(t, err)
		assert.IsType(t, &storage.FSGateway{}, fsGw)

		s3Gw, err := reg.Open(storage.KindS3, "")
		require.NoError(t, err)
		assert.IsType(t, &storage.S3Gateway{}, s3Gw)
	})

	t.Run("GatewaysAreCached", func(t *testing.T) {
		reg := storage.NewRegistry()
		calls := 0
		reg.Register("mem", func(location string) (storage.Gateway, error) {
			calls++
			return storage.NewFSGateway(afero.NewMemMapFs(), location), nil
		})

		a, err := reg.Open("mem", "x")
		require.NoError(t, err)
		b, err := reg.Open("mem", "x")
		require.NoError(t, err)
		_, err = reg.Open("mem", "y")
		require.NoError(t, err)

		assert.Same(t, a, b)
		assert.Equal(t, 2, calls)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		_, err := storage.NewRegistry().Open("sftp", "host")
		assert.ErrorIs(t, err, storage.ErrUnknownKind)
	})

	t.Run("FactoryError", func(t *testing.T) {
		reg := storage.NewRegistry()
		reg.Register("broken", func(string) (storage.Gateway, error) { return nil, assert.AnError })
		_, err := reg.Open("broken", "")
		assert.ErrorIs(t, err, assert.AnError)
	})
}
