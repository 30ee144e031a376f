package mocks

import (
	"context"

	"github.com/gestia/automate/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of the persistence.Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) LoadRules(ctx context.Context) ([]*models.WorkflowRule, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowRule), args.Error(1)
}

func (m *MockStore) SaveRules(ctx context.Context, rules []*models.WorkflowRule) error {
	args := m.Called(ctx, rules)

	return args.Error(0)
}

func (m *MockStore) LoadExecutions(ctx context.Context) ([]*models.WorkflowExecution, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowExecution), args.Error(1)
}

func (m *MockStore) SaveExecutions(ctx context.Context, executions []*models.WorkflowExecution) error {
	args := m.Called(ctx, executions)

	return args.Error(0)
}

func (m *MockStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockStore) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
