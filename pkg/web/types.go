// Package web provides HTTP request and response types for the rule API.
package web

import (
	"github.com/gestia/automate/pkg/events"
	"github.com/gestia/automate/pkg/models"
)

// CreateRuleRequest represents the request body for creating a rule.
type CreateRuleRequest struct {
	Name        string             `json:"name"        validate:"required"`
	Description string             `json:"description"`
	Trigger     models.Trigger     `json:"trigger"     validate:"required"`
	Conditions  []models.Condition `json:"conditions"  validate:"omitempty,dive"`
	Actions     []models.Action    `json:"actions"     validate:"omitempty,dive"`
	IsActive    bool               `json:"is_active"`
}

// UpdateRuleRequest represents the request body for updating a rule.
// All fields are optional to support partial updates; engine-owned
// fields (id, provenance, counters) are not accepted.
type UpdateRuleRequest struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Trigger     *models.Trigger     `json:"trigger,omitempty"`
	Conditions  *[]models.Condition `json:"conditions,omitempty"`
	Actions     *[]models.Action    `json:"actions,omitempty"`
	IsActive    *bool               `json:"is_active,omitempty"`
}

// IngestEventRequest represents a task event submitted for rule
// evaluation. The context is the flat field snapshot conditions are
// evaluated against.
type IngestEventRequest struct {
	Type    events.EventType    `json:"type"    validate:"required"`
	TaskID  string              `json:"task_id" validate:"required"`
	Context models.EventContext `json:"context"`
}
