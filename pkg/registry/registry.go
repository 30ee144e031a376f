// Package registry maps action kinds to their handlers and validates
// action parameters against per-kind schemas.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gestia/automate/pkg/dispatch"
	"github.com/gestia/automate/pkg/models"
)

type Registry struct {
	logger   *slog.Logger
	handlers map[models.ActionKind]dispatch.Handler
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("module", "registry"),
		handlers: make(map[models.ActionKind]dispatch.Handler),
	}
}

// Register binds a handler to an action kind. Later registrations for
// the same kind replace earlier ones.
func (r *Registry) Register(kind models.ActionKind, handler dispatch.Handler) {
	r.handlers[kind] = handler
}

// Dispatch implements dispatch.Dispatcher by routing the action to its
// registered handler.
func (r *Registry) Dispatch(ctx context.Context, action models.Action, taskID, workflowID string) error {
	handler, ok := r.handlers[action.Type]
	if !ok {
		return fmt.Errorf("action kind '%s' not registered", action.Type)
	}

	return handler.Handle(ctx, action, taskID, workflowID)
}

// HealthCheck reports whether every supported action kind has a handler.
func (r *Registry) HealthCheck() (string, bool) {
	for kind := range actionSchemas {
		if _, ok := r.handlers[kind]; !ok {
			return "No handler registered for action kind " + string(kind), false
		}
	}

	return "All action kinds have handlers", true
}
