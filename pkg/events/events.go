// Package events defines the task event and action-intent types carried
// over the event bus.
package events

import (
	"time"

	"github.com/gestia/automate/pkg/models"
)

type EventType string

// Bus topics.
const TaskEventTopic = "automate.task.events"      // Incoming task events from the CRUD system
const TaskCommandTopic = "automate.task.commands"  // Outgoing action intents for the CRUD system
const NotificationTopic = "automate.notifications" // Outgoing notification requests

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	TaskCreatedEvent   EventType = "task.created"
	TaskUpdatedEvent   EventType = "task.updated"
	TaskCompletedEvent EventType = "task.completed"
	TaskAssignedEvent  EventType = "task.assigned"
	CommentAddedEvent  EventType = "comment.added"
	TimeLoggedEvent    EventType = "time.logged"
	StatusChangedEvent EventType = "status.changed"

	TaskCommandEvent  EventType = "task.command"
	NotificationEvent EventType = "notification.requested"
)

// triggerKindByEventType maps bus event types to the trigger kinds rules
// declare. Dispatch-layer filtering happens on this mapping, before the
// engine is ever called.
var triggerKindByEventType = map[EventType]models.TriggerKind{
	TaskCreatedEvent:   models.TriggerTaskCreated,
	TaskUpdatedEvent:   models.TriggerTaskUpdated,
	TaskCompletedEvent: models.TriggerTaskCompleted,
	TaskAssignedEvent:  models.TriggerTaskAssigned,
	CommentAddedEvent:  models.TriggerCommentAdded,
	TimeLoggedEvent:    models.TriggerTimeLogged,
	StatusChangedEvent: models.TriggerStatusChanged,
}

// TriggerKind resolves the trigger kind for a task event type. The
// second return is false for event types that do not trigger rules.
func (et EventType) TriggerKind() (models.TriggerKind, bool) {
	kind, ok := triggerKindByEventType[et]

	return kind, ok
}

// TaskEventTypes lists the incoming event types the worker subscribes to.
func TaskEventTypes() []EventType {
	types := make([]EventType, 0, len(triggerKindByEventType))
	for et := range triggerKindByEventType {
		types = append(types, et)
	}

	return types
}

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskEvent is a task lifecycle notification published by the
// surrounding CRUD system. Context carries the flat field snapshot the
// engine evaluates conditions against.
type TaskEvent struct {
	BaseEvent

	TaskID  string              `json:"task_id"`
	Context models.EventContext `json:"context,omitempty"`
}

func (e *TaskEvent) GetType() EventType {
	return e.Type
}

// TaskCommand is an action intent produced by a matched rule, to be
// applied to the task store by the surrounding CRUD system.
type TaskCommand struct {
	BaseEvent

	TaskID     string            `json:"task_id"`
	Action     models.ActionKind `json:"action"`
	Parameters map[string]any    `json:"parameters,omitempty"`
	WorkflowID string            `json:"workflow_id,omitempty"`
}

func (e *TaskCommand) GetType() EventType {
	return e.Type
}

// Notification is a notification request produced by a matched rule.
type Notification struct {
	BaseEvent

	TaskID     string         `json:"task_id"`
	Recipient  string         `json:"recipient,omitempty"`
	Message    string         `json:"message,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	WorkflowID string         `json:"workflow_id,omitempty"`
}

func (e *Notification) GetType() EventType {
	return e.Type
}
