package task

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/gestia/automate/pkg/eventbus"
	"github.com/gestia/automate/pkg/events"
	"github.com/gestia/automate/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	key      string
	event    eventbus.Event
	failWith error
}

func (p *capturePublisher) Publish(_ context.Context, key string, event eventbus.Event) error {
	if p.failWith != nil {
		return p.failWith
	}

	p.key = key
	p.event = event

	return nil
}

func TestHandler_Handle(t *testing.T) {
	t.Parallel()

	publisher := &capturePublisher{}
	handler := NewHandler(publisher, slog.Default())

	action := models.Action{
		Type:       models.ActionSetPriority,
		Parameters: map[string]any{"priority": "high"},
	}

	require.NoError(t, handler.Handle(t.Context(), action, "t1", "w1"))

	command, ok := publisher.event.(*events.TaskCommand)
	require.True(t, ok)

	assert.Equal(t, "t1", publisher.key)
	assert.Equal(t, events.TaskCommandEvent, command.Type)
	assert.Equal(t, "t1", command.TaskID)
	assert.Equal(t, "w1", command.WorkflowID)
	assert.Equal(t, models.ActionSetPriority, command.Action)
	assert.Equal(t, "high", command.Parameters["priority"])
	assert.False(t, command.Timestamp.IsZero())
}

func TestHandler_Handle_PublishError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("broker down")
	handler := NewHandler(&capturePublisher{failWith: wantErr}, slog.Default())

	err := handler.Handle(t.Context(), models.Action{Type: models.ActionAddTag}, "t1", "w1")
	assert.ErrorIs(t, err, wantErr)
}

func TestKinds_ExcludeNotification(t *testing.T) {
	t.Parallel()

	for _, kind := range Kinds {
		assert.NotEqual(t, models.ActionSendNotification, kind)
	}
}
