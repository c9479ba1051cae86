package pubsub_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, msg ports.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}
