// Package models defines the core domain models for workflow automation rules.
package models

import "time"

// TriggerKind identifies the task event a rule listens for.
type TriggerKind string

const (
	TriggerTaskCreated   TriggerKind = "task_created"
	TriggerTaskUpdated   TriggerKind = "task_updated"
	TriggerTaskCompleted TriggerKind = "task_completed"
	TriggerTaskAssigned  TriggerKind = "task_assigned"
	TriggerCommentAdded  TriggerKind = "comment_added"
	TriggerTimeLogged    TriggerKind = "time_logged"
	TriggerStatusChanged TriggerKind = "status_changed"
)

// TriggerKinds lists every supported trigger kind.
var TriggerKinds = []TriggerKind{
	TriggerTaskCreated,
	TriggerTaskUpdated,
	TriggerTaskCompleted,
	TriggerTaskAssigned,
	TriggerCommentAdded,
	TriggerTimeLogged,
	TriggerStatusChanged,
}

// Trigger binds a rule to a task event kind.
type Trigger struct {
	Type       TriggerKind    `json:"type"                 validate:"required"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ConditionOperator identifies a condition predicate.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
	OperatorIsEmpty     ConditionOperator = "is_empty"
	OperatorIsNotEmpty  ConditionOperator = "is_not_empty"
)

// Condition is one predicate over a field of the event context. A
// rule's conditions are combined with logical AND.
type Condition struct {
	Field    string            `json:"field"    validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required"`
	Value    any               `json:"value"`
}

// ActionKind identifies the effect a matched rule produces.
type ActionKind string

const (
	ActionAssignTask       ActionKind = "assign_task"
	ActionChangeStatus     ActionKind = "change_status"
	ActionAddTag           ActionKind = "add_tag"
	ActionRemoveTag        ActionKind = "remove_tag"
	ActionSetPriority      ActionKind = "set_priority"
	ActionSetDueDate       ActionKind = "set_due_date"
	ActionSendNotification ActionKind = "send_notification"
	ActionCreateSubtask    ActionKind = "create_subtask"
	ActionAddComment       ActionKind = "add_comment"
)

// Action is one effect with its kind-specific parameters.
type Action struct {
	Type       ActionKind     `json:"type"                 validate:"required"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// EventContext is the flat field snapshot of a task event that
// conditions are evaluated against.
type EventContext map[string]any

// WorkflowRule pairs a trigger with conditions and actions. The engine
// owns id, provenance, and the execution counters.
type WorkflowRule struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"                    validate:"required"`
	Description    string      `json:"description"`
	Trigger        Trigger     `json:"trigger"                 validate:"required"`
	Conditions     []Condition `json:"conditions"`
	Actions        []Action    `json:"actions"`
	IsActive       bool        `json:"is_active"`
	CreatedBy      string      `json:"created_by"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	ExecutionCount int         `json:"execution_count"`
	LastExecuted   *time.Time  `json:"last_executed,omitempty"`
}
