// Package dispatch defines the seam between what rule logic decided and
// how the surrounding task system applies it.
package dispatch

import (
	"context"

	"github.com/gestia/automate/pkg/models"
)

// Dispatcher performs the real side effect denoted by an action against
// a task. The engine's responsibility ends at calling Dispatch and
// recording success or failure per action. The workflow id identifies
// the rule that produced the action so consumers can trace intents back
// to their rule.
type Dispatcher interface {
	Dispatch(ctx context.Context, action models.Action, taskID, workflowID string) error
}

// Handler applies one family of action kinds.
type Handler interface {
	Handle(ctx context.Context, action models.Action, taskID, workflowID string) error
}
