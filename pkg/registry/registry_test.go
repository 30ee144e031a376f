package registry

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/gestia/automate/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	calls       []models.Action
	workflowIDs []string
	err         error
}

func (h *stubHandler) Handle(_ context.Context, action models.Action, _, workflowID string) error {
	h.calls = append(h.calls, action)
	h.workflowIDs = append(h.workflowIDs, workflowID)

	return h.err
}

func TestRegistry_Dispatch(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())
	handler := &stubHandler{}
	reg.Register(models.ActionAssignTask, handler)

	action := models.Action{Type: models.ActionAssignTask, Parameters: map[string]any{"assignee": "u1"}}

	require.NoError(t, reg.Dispatch(t.Context(), action, "t1", "w1"))
	require.Len(t, handler.calls, 1)
	assert.Equal(t, action, handler.calls[0])
	assert.Equal(t, []string{"w1"}, handler.workflowIDs)
}

func TestRegistry_Dispatch_UnknownKind(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())

	err := reg.Dispatch(t.Context(), models.Action{Type: "explode_task"}, "t1", "w1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_Dispatch_HandlerError(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())
	wantErr := errors.New("bus unavailable")
	reg.Register(models.ActionAddTag, &stubHandler{err: wantErr})

	err := reg.Dispatch(t.Context(), models.Action{Type: models.ActionAddTag}, "t1", "w1")
	assert.ErrorIs(t, err, wantErr)
}

func TestRegistry_HealthCheck(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())

	message, healthy := reg.HealthCheck()
	assert.False(t, healthy)
	assert.Contains(t, message, "No handler registered")

	for kind := range actionSchemas {
		reg.Register(kind, &stubHandler{})
	}

	message, healthy = reg.HealthCheck()
	assert.True(t, healthy)
	assert.Equal(t, "All action kinds have handlers", message)
}

func TestValidateAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		action  models.Action
		wantErr bool
	}{
		{
			name:   "assign task with assignee",
			action: models.Action{Type: models.ActionAssignTask, Parameters: map[string]any{"assignee": "u1"}},
		},
		{
			name:    "assign task missing assignee",
			action:  models.Action{Type: models.ActionAssignTask, Parameters: map[string]any{}},
			wantErr: true,
		},
		{
			name:    "assign task nil parameters",
			action:  models.Action{Type: models.ActionAssignTask},
			wantErr: true,
		},
		{
			name:   "set priority with allowed value",
			action: models.Action{Type: models.ActionSetPriority, Parameters: map[string]any{"priority": "urgent"}},
		},
		{
			name:    "set priority outside enum",
			action:  models.Action{Type: models.ActionSetPriority, Parameters: map[string]any{"priority": "asap"}},
			wantErr: true,
		},
		{
			name:    "change status with wrong type",
			action:  models.Action{Type: models.ActionChangeStatus, Parameters: map[string]any{"status": 3}},
			wantErr: true,
		},
		{
			name:   "notification without recipient",
			action: models.Action{Type: models.ActionSendNotification, Parameters: map[string]any{"message": "done"}},
		},
		{
			name:    "notification with empty message",
			action:  models.Action{Type: models.ActionSendNotification, Parameters: map[string]any{"message": ""}},
			wantErr: true,
		},
		{
			name:   "create subtask with title and assignee",
			action: models.Action{Type: models.ActionCreateSubtask, Parameters: map[string]any{"title": "Review", "assignee": "u2"}},
		},
		{
			name:    "unknown action kind",
			action:  models.Action{Type: "explode_task"},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAction(test.action)
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
