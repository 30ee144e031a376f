// Package mocks provides testify mocks for the engine's collaborators.
package mocks

import (
	"context"

	"github.com/gestia/automate/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockDispatcher is a mock implementation of the dispatch.Dispatcher interface.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, action models.Action, taskID, workflowID string) error {
	args := m.Called(ctx, action, taskID, workflowID)

	return args.Error(0)
}
