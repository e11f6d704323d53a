// Package storetest provides a testify mock of store.Store.
package storetest

import (
	"context"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock for the store.Store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListMessages(ctx context.Context) ([]domain.Message, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockStore) CreateMessage(ctx context.Context, msg domain.NewMessage) (domain.Message, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(domain.Message), args.Error(1)
}

func (m *MockStore) UpdateMessage(ctx context.Context, id string, patch domain.MessagePatch) (domain.Message, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(domain.Message), args.Error(1)
}

func (m *MockStore) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Conversation), args.Error(1)
}

func (m *MockStore) UpdateConversation(ctx context.Context, id string, patch domain.ConversationPatch) (domain.Conversation, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(domain.Conversation), args.Error(1)
}
