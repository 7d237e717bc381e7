package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Gateway is a mock implementation of storage.Gateway
type Gateway struct {
	mock.Mock
}

func (m *Gateway) Get(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Gateway) Put(ctx context.Context, path string, data []byte) error {
	args := m.Called(ctx, path, data)
	return args.Error(0)
}
