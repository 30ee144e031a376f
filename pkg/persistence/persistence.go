// Package persistence provides the storage abstraction for workflow
// rules and execution history.
package persistence

import (
	"context"

	"github.com/gestia/automate/pkg/models"
)

// Fixed collection keys. Every store keeps the two collections as whole
// serialized blobs under these names; saves are last-write-wins.
const (
	RulesKey      = "workflows"
	ExecutionsKey = "workflowExecutions"
)

// Store loads and saves the full rule collection and the append-only
// execution history. The engine owns the in-memory state and calls the
// store at defined lifecycle points: once at startup and after each
// mutating operation.
type Store interface {
	LoadRules(ctx context.Context) ([]*models.WorkflowRule, error)
	SaveRules(ctx context.Context, rules []*models.WorkflowRule) error
	LoadExecutions(ctx context.Context) ([]*models.WorkflowExecution, error)
	SaveExecutions(ctx context.Context, executions []*models.WorkflowExecution) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
