package models

import "time"

// ExecutionStatus represents the outcome of evaluating one rule against
// one task event.
type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success" // All actions dispatched
	ExecutionStatusFailed  ExecutionStatus = "failed"  // Conditions missed or no action dispatched
	ExecutionStatusPartial ExecutionStatus = "partial" // Some actions dispatched, some failed
)

// WorkflowExecution is one immutable record of a rule evaluation.
// Records are append-only and survive deletion of their rule.
type WorkflowExecution struct {
	ID              string          `json:"id"`
	WorkflowID      string          `json:"workflow_id"`
	TaskID          string          `json:"task_id"`
	ExecutedAt      time.Time       `json:"executed_at"`
	Status          ExecutionStatus `json:"status"`
	ActionsExecuted []ActionKind    `json:"actions_executed"`
	ErrorMessage    string          `json:"error_message,omitempty"`
}

// WorkflowStats aggregates rule and execution counts for reporting.
type WorkflowStats struct {
	TotalWorkflows       int     `json:"total_workflows"`
	ActiveWorkflows      int     `json:"active_workflows"`
	TotalExecutions      int     `json:"total_executions"`
	SuccessfulExecutions int     `json:"successful_executions"`
	FailedExecutions     int     `json:"failed_executions"`
	SuccessRate          float64 `json:"success_rate"`
}
