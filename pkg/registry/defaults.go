package registry

import (
	"log/slog"

	"github.com/gestia/automate/pkg/actions/notification"
	"github.com/gestia/automate/pkg/actions/task"
	"github.com/gestia/automate/pkg/eventbus"
	"github.com/gestia/automate/pkg/models"
)

// NewDefaultRegistry builds a registry with the built-in handlers: task
// action intents published to the commands topic, notifications to the
// notifications topic.
func NewDefaultRegistry(eventBus eventbus.EventPublisher, logger *slog.Logger) *Registry {
	registry := NewRegistry(logger)

	taskHandler := task.NewHandler(eventBus, logger)
	for _, kind := range task.Kinds {
		registry.Register(kind, taskHandler)
	}

	registry.Register(models.ActionSendNotification, notification.NewHandler(eventBus, logger))

	return registry
}
