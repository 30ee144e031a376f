// Package engine implements the workflow automation matcher: it holds
// the rule collection and execution history, matches task events
// against rule conditions, and dispatches matched rules' actions.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gestia/automate/pkg/dispatch"
	"github.com/gestia/automate/pkg/models"
	"github.com/gestia/automate/pkg/persistence"
	"github.com/google/uuid"
)

// conditionsNotMetMessage is the historical failure message recorded
// when a rule's conditions do not match an event.
const conditionsNotMetMessage = "Conditions non remplies"

// Engine owns the in-memory rule and execution collections. It loads
// them from the store once at construction and saves after every
// mutating operation; saves are last-write-wins. All access is
// serialized through a single mutex.
type Engine struct {
	mu         sync.Mutex
	store      persistence.Store
	dispatcher dispatch.Dispatcher
	logger     *slog.Logger
	rules      []*models.WorkflowRule
	executions []*models.WorkflowExecution
}

// New creates an engine and loads both collections from the store.
func New(ctx context.Context, store persistence.Store, dispatcher dispatch.Dispatcher, logger *slog.Logger) (*Engine, error) {
	rules, err := store.LoadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	executions, err := store.LoadExecutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load executions: %w", err)
	}

	return &Engine{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger.With("module", "engine"),
		rules:      rules,
		executions: executions,
	}, nil
}

// HealthCheck checks the health of the persistence collaborator.
func (e *Engine) HealthCheck(ctx context.Context) (string, bool) {
	if e.store == nil {
		return "Store not initialized", false
	}

	if err := e.store.HealthCheck(ctx); err != nil {
		return "Store is unhealthy: " + err.Error(), false
	}

	return "Store is healthy", true
}

// RuleDraft is the caller-supplied part of a new rule. The engine owns
// id, provenance, and counters.
type RuleDraft struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Trigger     models.Trigger     `json:"trigger"`
	Conditions  []models.Condition `json:"conditions"`
	Actions     []models.Action    `json:"actions"`
	IsActive    bool               `json:"is_active"`
}

// RulePatch carries a partial update. Nil fields are left untouched;
// id, createdBy, createdAt, and executionCount are engine-owned and not
// patchable by construction.
type RulePatch struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Trigger     *models.Trigger     `json:"trigger,omitempty"`
	Conditions  *[]models.Condition `json:"conditions,omitempty"`
	Actions     *[]models.Action    `json:"actions,omitempty"`
	IsActive    *bool               `json:"is_active,omitempty"`
}

// Create appends a new rule built from the draft, stamped with a fresh
// id, the acting identity, and creation timestamps.
func (e *Engine) Create(ctx context.Context, draft RuleDraft, createdBy string) (*models.WorkflowRule, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return nil, ErrNameRequired
	}

	if err := validateTrigger(draft.Trigger.Type); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rule := &models.WorkflowRule{
		ID:             uuid.New().String(),
		Name:           draft.Name,
		Description:    draft.Description,
		Trigger:        draft.Trigger,
		Conditions:     draft.Conditions,
		Actions:        draft.Actions,
		IsActive:       draft.IsActive,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExecutionCount: 0,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = append(e.rules, rule)

	if err := e.store.SaveRules(ctx, e.rules); err != nil {
		e.rules = e.rules[:len(e.rules)-1]

		return nil, err
	}

	return rule, nil
}

// Update merges the patch into the rule and refreshes updatedAt.
func (e *Engine) Update(ctx context.Context, id string, patch RulePatch) (*models.WorkflowRule, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, ErrNameRequired
	}

	if patch.Trigger != nil {
		if err := validateTrigger(patch.Trigger.Type); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rule := e.findRule(id)
	if rule == nil {
		return nil, ErrRuleNotFound
	}

	if patch.Name != nil {
		rule.Name = *patch.Name
	}

	if patch.Description != nil {
		rule.Description = *patch.Description
	}

	if patch.Trigger != nil {
		rule.Trigger = *patch.Trigger
	}

	if patch.Conditions != nil {
		rule.Conditions = *patch.Conditions
	}

	if patch.Actions != nil {
		rule.Actions = *patch.Actions
	}

	if patch.IsActive != nil {
		rule.IsActive = *patch.IsActive
	}

	rule.UpdatedAt = time.Now().UTC()

	if err := e.store.SaveRules(ctx, e.rules); err != nil {
		return nil, err
	}

	return rule, nil
}

// Delete removes the rule from the collection. Past executions keep
// referencing the deleted rule id as historical log entries.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, rule := range e.rules {
		if rule.ID == id {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)

			return e.store.SaveRules(ctx, e.rules)
		}
	}

	return ErrRuleNotFound
}

// Toggle flips the rule's active flag and refreshes updatedAt.
func (e *Engine) Toggle(ctx context.Context, id string) (*models.WorkflowRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rule := e.findRule(id)
	if rule == nil {
		return nil, ErrRuleNotFound
	}

	rule.IsActive = !rule.IsActive
	rule.UpdatedAt = time.Now().UTC()

	if err := e.store.SaveRules(ctx, e.rules); err != nil {
		return nil, err
	}

	return rule, nil
}

// Get returns the rule with the given id.
func (e *Engine) Get(id string) (*models.WorkflowRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rule := e.findRule(id)
	if rule == nil {
		return nil, ErrRuleNotFound
	}

	return rule, nil
}

// Search filters rules by case-insensitive substring match of the query
// against name or description. A blank query returns the full
// collection in its original order.
func (e *Engine) Search(query string) []*models.WorkflowRule {
	e.mu.Lock()
	defer e.mu.Unlock()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		results := make([]*models.WorkflowRule, len(e.rules))
		copy(results, e.rules)

		return results
	}

	needle := strings.ToLower(trimmed)
	results := make([]*models.WorkflowRule, 0)

	for _, rule := range e.rules {
		if strings.Contains(strings.ToLower(rule.Name), needle) ||
			strings.Contains(strings.ToLower(rule.Description), needle) {
			results = append(results, rule)
		}
	}

	return results
}

// ActiveRules returns the active rules whose trigger matches the given
// kind, in rule-creation order. The dispatch layer uses this to filter
// by trigger type before calling Evaluate; inactive rules are never
// evaluated.
func (e *Engine) ActiveRules(kind models.TriggerKind) []*models.WorkflowRule {
	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]*models.WorkflowRule, 0)

	for _, rule := range e.rules {
		if rule.IsActive && rule.Trigger.Type == kind {
			results = append(results, rule)
		}
	}

	return results
}

// Stats aggregates over all rules and the full execution history,
// including executions of deleted rules.
func (e *Engine) Stats() models.WorkflowStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := models.WorkflowStats{
		TotalWorkflows:  len(e.rules),
		TotalExecutions: len(e.executions),
	}

	for _, rule := range e.rules {
		if rule.IsActive {
			stats.ActiveWorkflows++
		}
	}

	for _, execution := range e.executions {
		switch execution.Status {
		case models.ExecutionStatusSuccess:
			stats.SuccessfulExecutions++
		case models.ExecutionStatusFailed:
			stats.FailedExecutions++
		case models.ExecutionStatusPartial:
		}
	}

	if stats.TotalExecutions > 0 {
		stats.SuccessRate = float64(stats.SuccessfulExecutions) / float64(stats.TotalExecutions) * 100
	}

	return stats
}

// Executions returns the execution history, optionally filtered by
// workflow id. History survives rule deletion.
func (e *Engine) Executions(workflowID string) []*models.WorkflowExecution {
	e.mu.Lock()
	defer e.mu.Unlock()

	if workflowID == "" {
		results := make([]*models.WorkflowExecution, len(e.executions))
		copy(results, e.executions)

		return results
	}

	results := make([]*models.WorkflowExecution, 0)

	for _, execution := range e.executions {
		if execution.WorkflowID == workflowID {
			results = append(results, execution)
		}
	}

	return results
}

// Evaluate matches one rule against an event context and, on a full
// match, dispatches the rule's actions in order. It never returns an
// error: every invocation appends exactly one execution record to the
// history and returns it. The rule must belong to this engine (obtained
// via ActiveRules or Get); trigger-type filtering is the caller's job.
func (e *Engine) Evaluate(ctx context.Context, rule *models.WorkflowRule, taskID string, eventCtx models.EventContext) *models.WorkflowExecution {
	e.mu.Lock()
	defer e.mu.Unlock()

	execution := &models.WorkflowExecution{
		ID:              uuid.New().String(),
		WorkflowID:      rule.ID,
		TaskID:          taskID,
		ExecutedAt:      time.Now().UTC(),
		ActionsExecuted: []models.ActionKind{},
	}

	e.run(ctx, rule, execution, eventCtx)

	if execution.Status != models.ExecutionStatusFailed {
		rule.ExecutionCount++
		rule.LastExecuted = &execution.ExecutedAt

		if err := e.store.SaveRules(ctx, e.rules); err != nil {
			e.logger.Error("Failed to save rules after evaluation",
				"workflow_id", rule.ID,
				"error", err)
		}
	}

	e.executions = append(e.executions, execution)

	if err := e.store.SaveExecutions(ctx, e.executions); err != nil {
		e.logger.Error("Failed to save execution history",
			"workflow_id", rule.ID,
			"error", err)
	}

	e.logger.Info("Evaluated rule",
		"workflow_id", rule.ID,
		"task_id", taskID,
		"status", execution.Status,
		"actions_executed", len(execution.ActionsExecuted))

	return execution
}

// run performs condition matching and action dispatch, folding any
// panic into a failed execution so evaluation is total.
func (e *Engine) run(ctx context.Context, rule *models.WorkflowRule, execution *models.WorkflowExecution, eventCtx models.EventContext) {
	defer func() {
		if r := recover(); r != nil {
			execution.Status = models.ExecutionStatusFailed
			execution.ErrorMessage = fmt.Sprintf("%v", r)
		}
	}()

	if !matchConditions(rule.Conditions, eventCtx) {
		execution.Status = models.ExecutionStatusFailed
		execution.ErrorMessage = conditionsNotMetMessage

		return
	}

	var firstErr error

	// Fail-open continuation: a failing action does not abort the rest,
	// each action's outcome is recorded independently.
	for _, action := range rule.Actions {
		if err := e.dispatcher.Dispatch(ctx, action, execution.TaskID, rule.ID); err != nil {
			e.logger.Warn("Action dispatch failed",
				"workflow_id", rule.ID,
				"action", action.Type,
				"error", err)

			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		execution.ActionsExecuted = append(execution.ActionsExecuted, action.Type)
	}

	switch {
	case firstErr == nil:
		execution.Status = models.ExecutionStatusSuccess
	case len(execution.ActionsExecuted) > 0:
		execution.Status = models.ExecutionStatusPartial
		execution.ErrorMessage = firstErr.Error()
	default:
		execution.Status = models.ExecutionStatusFailed
		execution.ErrorMessage = firstErr.Error()
	}
}

func (e *Engine) findRule(id string) *models.WorkflowRule {
	for _, rule := range e.rules {
		if rule.ID == id {
			return rule
		}
	}

	return nil
}

func validateTrigger(kind models.TriggerKind) error {
	for _, known := range models.TriggerKinds {
		if kind == known {
			return nil
		}
	}

	return fmt.Errorf("%w: '%s'", ErrUnknownTrigger, kind)
}
