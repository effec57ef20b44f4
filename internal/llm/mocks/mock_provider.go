// Package mocks provides a testify mock of the llm.Provider interface.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ai-chat/backend/internal/llm"
)

type MockProvider struct {
	mock.Mock
}

func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.CompletionResponse), args.Error(1)
}

func (m *MockProvider) CompleteStream(ctx context.Context, req *llm.CompletionRequest, ch chan<- llm.StreamDelta) error {
	args := m.Called(ctx, req, ch)
	return args.Error(0)
}
