// Package mocks provides a testify mock of the repository.Repository
// interface for use in service and handler tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ai-chat/backend/internal/model"
)

type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a mock wired to the test lifecycle: expectations
// are asserted automatically on cleanup.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) CreateConversation(ctx context.Context, conversation *model.Conversation) error {
	args := m.Called(ctx, conversation)
	return args.Error(0)
}

func (m *MockRepository) GetConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockRepository) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Conversation), args.Error(1)
}

func (m *MockRepository) AddMessage(ctx context.Context, conversationID string, message *model.Message) error {
	args := m.Called(ctx, conversationID, message)
	return args.Error(0)
}

func (m *MockRepository) GetMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}
