// Package task publishes task action intents for the surrounding CRUD
// system to apply.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gestia/automate/pkg/eventbus"
	"github.com/gestia/automate/pkg/events"
	"github.com/gestia/automate/pkg/models"
)

// Kinds lists the action kinds this handler covers: every task-mutating
// effect. Notifications are handled separately.
var Kinds = []models.ActionKind{
	models.ActionAssignTask,
	models.ActionChangeStatus,
	models.ActionAddTag,
	models.ActionRemoveTag,
	models.ActionSetPriority,
	models.ActionSetDueDate,
	models.ActionCreateSubtask,
	models.ActionAddComment,
}

type Handler struct {
	eventBus eventbus.EventPublisher
	logger   *slog.Logger
}

func NewHandler(eventBus eventbus.EventPublisher, logger *slog.Logger) *Handler {
	return &Handler{
		eventBus: eventBus,
		logger:   logger.With("module", "task_action"),
	}
}

// Handle turns the action into a TaskCommand on the commands topic. The
// command carries the action kind, its validated parameters, and the id
// of the rule that produced it; applying it to the task store is the
// consumer's job.
func (h *Handler) Handle(ctx context.Context, action models.Action, taskID, workflowID string) error {
	command := &events.TaskCommand{
		BaseEvent: events.BaseEvent{
			Type:      events.TaskCommandEvent,
			Timestamp: time.Now().UTC(),
		},
		TaskID:     taskID,
		Action:     action.Type,
		Parameters: action.Parameters,
		WorkflowID: workflowID,
	}

	if err := h.eventBus.Publish(ctx, taskID, command); err != nil {
		return fmt.Errorf("failed to publish task command '%s': %w", action.Type, err)
	}

	h.logger.Debug("Published task command",
		"action", action.Type,
		"task_id", taskID,
		"workflow_id", workflowID)

	return nil
}
