// Package notification publishes notification requests produced by
// matched rules.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gestia/automate/pkg/eventbus"
	"github.com/gestia/automate/pkg/events"
	"github.com/gestia/automate/pkg/models"
)

type Handler struct {
	eventBus eventbus.EventPublisher
	logger   *slog.Logger
}

func NewHandler(eventBus eventbus.EventPublisher, logger *slog.Logger) *Handler {
	return &Handler{
		eventBus: eventBus,
		logger:   logger.With("module", "notification_action"),
	}
}

func (h *Handler) Handle(ctx context.Context, action models.Action, taskID, workflowID string) error {
	message, _ := action.Parameters["message"].(string)
	recipient, _ := action.Parameters["recipient"].(string)

	notification := &events.Notification{
		BaseEvent: events.BaseEvent{
			Type:      events.NotificationEvent,
			Timestamp: time.Now().UTC(),
		},
		TaskID:     taskID,
		Recipient:  recipient,
		Message:    message,
		Parameters: action.Parameters,
		WorkflowID: workflowID,
	}

	if err := h.eventBus.Publish(ctx, taskID, notification); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	h.logger.Debug("Published notification request",
		"task_id", taskID,
		"recipient", recipient)

	return nil
}
