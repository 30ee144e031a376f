// Package web provides the REST API for rule management and task event
// ingestion.
package web

import (
	"net/http"
	"time"

	"github.com/gestia/automate/pkg/engine"
	"github.com/gestia/automate/pkg/eventbus"
	"github.com/gestia/automate/pkg/events"
	"github.com/gestia/automate/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// identityHeader carries the acting user's id for createdBy stamping.
const identityHeader = "X-User-ID"

const anonymousIdentity = "system"

type APIHandlers struct {
	engine    *engine.Engine
	registry  *registry.Registry
	validator *validator.Validate
	eventBus  eventbus.EventBus
}

func NewAPIHandlers(
	ruleEngine *engine.Engine,
	registry *registry.Registry,
	validator *validator.Validate,
	eventBus eventbus.EventBus,
) *APIHandlers {
	return &APIHandlers{
		engine:    ruleEngine,
		registry:  registry,
		validator: validator,
		eventBus:  eventBus,
	}
}

// GetRules lists rules, optionally filtered by the q query parameter.
// A blank query returns the full collection in original order.
func (h *APIHandlers) GetRules(c fiber.Ctx) error {
	rules := h.engine.Search(c.Query("q"))

	return c.JSON(fiber.Map{
		"rules": rules,
		"count": len(rules),
	})
}

func (h *APIHandlers) GetRule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Rule ID is required")
	}

	rule, err := h.engine.Get(id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) CreateRule(c fiber.Ctx) error {
	var req CreateRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	for _, action := range req.Actions {
		if err := registry.ValidateAction(action); err != nil {
			return badRequest(c, err.Error())
		}
	}

	draft := engine.RuleDraft{
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		IsActive:    req.IsActive,
	}

	created, err := h.engine.Create(c.Context(), draft, h.identity(c))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateRule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Rule ID is required")
	}

	var req UpdateRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.Actions != nil {
		for _, action := range *req.Actions {
			if err := registry.ValidateAction(action); err != nil {
				return badRequest(c, err.Error())
			}
		}
	}

	patch := engine.RulePatch{
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		IsActive:    req.IsActive,
	}

	updated, err := h.engine.Update(c.Context(), id, patch)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteRule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Rule ID is required")
	}

	if err := h.engine.Delete(c.Context(), id); err != nil {
		return handleEngineError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ToggleRule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Rule ID is required")
	}

	toggled, err := h.engine.Toggle(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(toggled)
}

func (h *APIHandlers) GetStats(c fiber.Ctx) error {
	return c.JSON(h.engine.Stats())
}

// GetExecutions returns the execution history, optionally filtered by
// workflow_id. Records of deleted rules are kept.
func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	executions := h.engine.Executions(c.Query("workflow_id"))

	return c.JSON(fiber.Map{
		"executions": executions,
		"count":      len(executions),
	})
}

// IngestEvent publishes a task event onto the bus for the worker's
// dispatch layer to evaluate.
func (h *APIHandlers) IngestEvent(c fiber.Ctx) error {
	var req IngestEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if _, ok := req.Type.TriggerKind(); !ok {
		return badRequest(c, "Unknown task event type: "+string(req.Type))
	}

	event := &events.TaskEvent{
		BaseEvent: events.BaseEvent{
			ID:        h.eventBus.GenerateID(),
			Type:      req.Type,
			Timestamp: time.Now().UTC(),
		},
		TaskID:  req.TaskID,
		Context: req.Context,
	}

	if err := h.eventBus.Publish(c.Context(), req.TaskID, event); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(event)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	storeCheck, storeOk := h.engine.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Automate API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && storeOk {
		status = "healthy"
		message = "Automate API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry": registryCheck,
			"store":    storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) identity(c fiber.Ctx) string {
	if user := c.Get(identityHeader); user != "" {
		return user
	}

	return anonymousIdentity
}
