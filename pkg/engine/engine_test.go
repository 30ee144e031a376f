package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/gestia/automate/pkg/mocks"
	"github.com/gestia/automate/pkg/models"
	"github.com/gestia/automate/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *mocks.MockDispatcher) {
	t.Helper()

	store := file.NewStore(t.TempDir())
	dispatcher := &mocks.MockDispatcher{}

	ruleEngine, err := New(t.Context(), store, dispatcher, slog.Default())
	require.NoError(t, err)

	return ruleEngine, dispatcher
}

func assignUrgentDraft() RuleDraft {
	return RuleDraft{
		Name:        "Assign urgent tasks",
		Description: "Assigns newly created urgent tasks",
		Trigger:     models.Trigger{Type: models.TriggerTaskCreated},
		Conditions: []models.Condition{
			{Field: "priority", Operator: models.OperatorEquals, Value: "urgent"},
		},
		Actions: []models.Action{
			{Type: models.ActionAssignTask, Parameters: map[string]any{"assignee": "u1"}},
		},
		IsActive: true,
	}
}

func TestEngine_Create(t *testing.T) {
	ruleEngine, _ := newTestEngine(t)

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "admin", created.CreatedBy)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	assert.Equal(t, 0, created.ExecutionCount)
	assert.Nil(t, created.LastExecuted)
}

func TestEngine_Create_EmptyName(t *testing.T) {
	ruleEngine, _ := newTestEngine(t)

	draft := assignUrgentDraft()
	draft.Name = "   "

	created, err := ruleEngine.Create(t.Context(), draft, "admin")
	assert.Nil(t, created)
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.True(t, IsValidationError(err))
}

func TestEngine_Create_UnknownTrigger(t *testing.T) {
	ruleEngine, _ := newTestEngine(t)

	draft := assignUrgentDraft()
	draft.Trigger.Type = "task_archived"

	created, err := ruleEngine.Create(t.Context(), draft, "admin")
	assert.Nil(t, created)
	assert.ErrorIs(t, err, ErrUnknownTrigger)
}

func TestEngine_Create_RoundTrip(t *testing.T) {
	testDir := t.TempDir()
	store := file.NewStore(testDir)
	dispatcher := &mocks.MockDispatcher{}

	ruleEngine, err := New(t.Context(), store, dispatcher, slog.Default())
	require.NoError(t, err)

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)

	// A fresh engine over the same store sees the persisted rule.
	reloaded, err := New(t.Context(), file.NewStore(testDir), dispatcher, slog.Default())
	require.NoError(t, err)

	fetched, err := reloaded.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, fetched.Name)
	assert.Equal(t, created.Trigger, fetched.Trigger)
	assert.Equal(t, created.Conditions, fetched.Conditions)
	assert.Equal(t, created.CreatedBy, fetched.CreatedBy)
	assert.Equal(t, created.ExecutionCount, fetched.ExecutionCount)
}

func TestEngine_Update(t *testing.T) {
	ruleEngine, _ := newTestEngine(t)

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)

	newName := "Assign critical tasks"
	inactive := false

	updated, err := ruleEngine.Update(t.Context(), created.ID, RulePatch{
		Name:     &newName,
		IsActive: &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, newName, updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "admin", updated.CreatedBy)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestEngine_Update_NotFound(t *testing.T) {
	ruleEngine, _ := newTestEngine(t)

	name := "renamed"

	updated, err := ruleEngine.Update(t.Context(), "missing", RulePatch{Name: &name})
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, ErrRuleNotFound)
	assert.True(t, IsNotFound(err))
}

func TestEngine_Toggle(t *testing.T) {
	ruleEngine, _ := newTestEngine(t)

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)
	require.True(t, created.IsActive)

	firstUpdatedAt := created.UpdatedAt

	time.Sleep(time.Millisecond)

	toggled, err := ruleEngine.Toggle(t.Context(), created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	assert.True(t, toggled.UpdatedAt.After(firstUpdatedAt))

	secondUpdatedAt := toggled.UpdatedAt

	time.Sleep(time.Millisecond)

	// Toggling twice returns the rule to its original state.
	toggled, err = ruleEngine.Toggle(t.Context(), created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
	assert.True(t, toggled.UpdatedAt.After(secondUpdatedAt))
}

func TestEngine_Toggle_NotFound(t *testing.T) {
	ruleEngine, _ := newTestEngine(t)

	toggled, err := ruleEngine.Toggle(t.Context(), "missing")
	assert.Nil(t, toggled)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestEngine_Delete_KeepsExecutionHistory(t *testing.T) {
	ruleEngine, dispatcher := newTestEngine(t)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, "t1", mock.Anything).Return(nil)

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)

	execution := ruleEngine.Evaluate(t.Context(), created, "t1", models.EventContext{"priority": "urgent"})
	require.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	require.NoError(t, ruleEngine.Delete(t.Context(), created.ID))

	_, err = ruleEngine.Get(created.ID)
	assert.ErrorIs(t, err, ErrRuleNotFound)

	// Execution history survives as orphan references.
	executions := ruleEngine.Executions(created.ID)
	require.Len(t, executions, 1)
	assert.Equal(t, created.ID, executions[0].WorkflowID)
}

func TestEngine_Evaluate_Match(t *testing.T) {
	ruleEngine, dispatcher := newTestEngine(t)

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)
	require.Equal(t, 0, created.ExecutionCount)

	// Dispatch receives the id of the rule that produced the action.
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, "t1", created.ID).Return(nil)

	execution := ruleEngine.Evaluate(t.Context(), created, "t1", models.EventContext{"priority": "urgent"})

	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
	assert.Equal(t, []models.ActionKind{models.ActionAssignTask}, execution.ActionsExecuted)
	assert.Empty(t, execution.ErrorMessage)
	assert.Equal(t, created.ID, execution.WorkflowID)
	assert.Equal(t, "t1", execution.TaskID)

	assert.Equal(t, 1, created.ExecutionCount)
	require.NotNil(t, created.LastExecuted)
	assert.Equal(t, execution.ExecutedAt, *created.LastExecuted)

	dispatcher.AssertExpectations(t)
}

func TestEngine_Evaluate_ConditionsNotMet(t *testing.T) {
	ruleEngine, dispatcher := newTestEngine(t)

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)

	execution := ruleEngine.Evaluate(t.Context(), created, "t1", models.EventContext{"priority": "low"})

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Equal(t, "Conditions non remplies", execution.ErrorMessage)
	assert.Empty(t, execution.ActionsExecuted)

	// Rule counters are untouched on a miss.
	assert.Equal(t, 0, created.ExecutionCount)
	assert.Nil(t, created.LastExecuted)

	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_Evaluate_EmptyConditionsAreVacuouslyTrue(t *testing.T) {
	ruleEngine, dispatcher := newTestEngine(t)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, "t1", mock.Anything).Return(nil)

	draft := assignUrgentDraft()
	draft.Conditions = nil

	created, err := ruleEngine.Create(t.Context(), draft, "admin")
	require.NoError(t, err)

	execution := ruleEngine.Evaluate(t.Context(), created, "t1", models.EventContext{"priority": "low"})

	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
	assert.Equal(t, 1, created.ExecutionCount)
}

func TestEngine_Evaluate_PartialFailure(t *testing.T) {
	ruleEngine, dispatcher := newTestEngine(t)

	draft := assignUrgentDraft()
	draft.Actions = []models.Action{
		{Type: models.ActionAssignTask, Parameters: map[string]any{"assignee": "u1"}},
		{Type: models.ActionAddTag, Parameters: map[string]any{"tag": "hot"}},
	}

	created, err := ruleEngine.Create(t.Context(), draft, "admin")
	require.NoError(t, err)

	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(a models.Action) bool {
		return a.Type == models.ActionAssignTask
	}), "t1", created.ID).Return(errors.New("assignee not found"))
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(a models.Action) bool {
		return a.Type == models.ActionAddTag
	}), "t1", created.ID).Return(nil)

	execution := ruleEngine.Evaluate(t.Context(), created, "t1", models.EventContext{"priority": "urgent"})

	// Fail-open continuation: the second action still ran.
	assert.Equal(t, models.ExecutionStatusPartial, execution.Status)
	assert.Equal(t, []models.ActionKind{models.ActionAddTag}, execution.ActionsExecuted)
	assert.Contains(t, execution.ErrorMessage, "assignee not found")

	// Partial still counts as a match.
	assert.Equal(t, 1, created.ExecutionCount)
}

func TestEngine_Evaluate_AllActionsFailed(t *testing.T) {
	ruleEngine, dispatcher := newTestEngine(t)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, "t1", mock.Anything).Return(errors.New("bus unavailable"))

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)

	execution := ruleEngine.Evaluate(t.Context(), created, "t1", models.EventContext{"priority": "urgent"})

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Empty(t, execution.ActionsExecuted)
	assert.Contains(t, execution.ErrorMessage, "bus unavailable")
	assert.Equal(t, 0, created.ExecutionCount)
}

type panickingDispatcher struct{}

func (panickingDispatcher) Dispatch(context.Context, models.Action, string, string) error {
	panic("dispatcher exploded")
}

func TestEngine_Evaluate_RecoversDispatchPanic(t *testing.T) {
	store := file.NewStore(t.TempDir())

	ruleEngine, err := New(t.Context(), store, panickingDispatcher{}, slog.Default())
	require.NoError(t, err)

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)

	execution := ruleEngine.Evaluate(t.Context(), created, "t1", models.EventContext{"priority": "urgent"})

	// Evaluation is total: the panic is folded into a failed execution
	// instead of escaping the engine.
	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Equal(t, "dispatcher exploded", execution.ErrorMessage)
	assert.Empty(t, execution.ActionsExecuted)

	assert.Equal(t, 0, created.ExecutionCount)
	assert.Nil(t, created.LastExecuted)

	executions := ruleEngine.Executions(created.ID)
	assert.Len(t, executions, 1)
}

func TestEngine_Evaluate_StoreFailuresNotPropagated(t *testing.T) {
	rule := &models.WorkflowRule{
		ID:      "w1",
		Name:    "Assign urgent tasks",
		Trigger: models.Trigger{Type: models.TriggerTaskCreated},
		Actions: []models.Action{
			{Type: models.ActionAssignTask, Parameters: map[string]any{"assignee": "u1"}},
		},
		IsActive: true,
	}

	store := &mocks.MockStore{}
	store.On("LoadRules", mock.Anything).Return([]*models.WorkflowRule{rule}, nil)
	store.On("LoadExecutions", mock.Anything).Return([]*models.WorkflowExecution{}, nil)
	store.On("SaveRules", mock.Anything, mock.Anything).Return(errors.New("store offline"))
	store.On("SaveExecutions", mock.Anything, mock.Anything).Return(errors.New("store offline"))

	dispatcher := &mocks.MockDispatcher{}
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, "t1", "w1").Return(nil)

	ruleEngine, err := New(t.Context(), store, dispatcher, slog.Default())
	require.NoError(t, err)

	execution := ruleEngine.Evaluate(t.Context(), rule, "t1", models.EventContext{})

	// Save errors are logged, not surfaced: the execution record and the
	// in-memory counters are still produced.
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
	assert.Equal(t, 1, rule.ExecutionCount)
	assert.Len(t, ruleEngine.Executions("w1"), 1)

	store.AssertExpectations(t)
}

func TestEngine_Evaluate_AlwaysRecordsExecution(t *testing.T) {
	ruleEngine, dispatcher := newTestEngine(t)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)

	ruleEngine.Evaluate(t.Context(), created, "t1", models.EventContext{"priority": "urgent"})
	ruleEngine.Evaluate(t.Context(), created, "t2", models.EventContext{"priority": "low"})

	executions := ruleEngine.Executions("")
	assert.Len(t, executions, 2)
}

func TestEngine_Search(t *testing.T) {
	ruleEngine, _ := newTestEngine(t)

	first := assignUrgentDraft()
	first.Name = "Escalate bugs"
	first.Description = "Escalates bug reports"

	second := assignUrgentDraft()
	second.Name = "Notify manager"
	second.Description = "Notifies on completion"

	createdFirst, err := ruleEngine.Create(t.Context(), first, "admin")
	require.NoError(t, err)
	createdSecond, err := ruleEngine.Create(t.Context(), second, "admin")
	require.NoError(t, err)

	// Blank query returns the full collection in original order.
	all := ruleEngine.Search("   ")
	require.Len(t, all, 2)
	assert.Equal(t, createdFirst.ID, all[0].ID)
	assert.Equal(t, createdSecond.ID, all[1].ID)

	// Case-insensitive match on name or description.
	results := ruleEngine.Search("BUG")
	require.Len(t, results, 1)
	assert.Equal(t, createdFirst.ID, results[0].ID)

	results = ruleEngine.Search("completion")
	require.Len(t, results, 1)
	assert.Equal(t, createdSecond.ID, results[0].ID)

	assert.Empty(t, ruleEngine.Search("nothing matches this"))
}

func TestEngine_ActiveRules(t *testing.T) {
	ruleEngine, _ := newTestEngine(t)

	active := assignUrgentDraft()

	inactive := assignUrgentDraft()
	inactive.Name = "Disabled rule"
	inactive.IsActive = false

	otherTrigger := assignUrgentDraft()
	otherTrigger.Name = "On completion"
	otherTrigger.Trigger.Type = models.TriggerTaskCompleted

	createdActive, err := ruleEngine.Create(t.Context(), active, "admin")
	require.NoError(t, err)
	_, err = ruleEngine.Create(t.Context(), inactive, "admin")
	require.NoError(t, err)
	_, err = ruleEngine.Create(t.Context(), otherTrigger, "admin")
	require.NoError(t, err)

	rules := ruleEngine.ActiveRules(models.TriggerTaskCreated)
	require.Len(t, rules, 1)
	assert.Equal(t, createdActive.ID, rules[0].ID)
}

func TestEngine_Stats(t *testing.T) {
	ruleEngine, dispatcher := newTestEngine(t)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// No executions yet: the success rate is defined as zero.
	stats := ruleEngine.Stats()
	assert.Equal(t, models.WorkflowStats{}, stats)

	created, err := ruleEngine.Create(t.Context(), assignUrgentDraft(), "admin")
	require.NoError(t, err)

	inactive := assignUrgentDraft()
	inactive.Name = "Disabled rule"
	inactive.IsActive = false
	_, err = ruleEngine.Create(t.Context(), inactive, "admin")
	require.NoError(t, err)

	ruleEngine.Evaluate(t.Context(), created, "t1", models.EventContext{"priority": "urgent"})
	ruleEngine.Evaluate(t.Context(), created, "t2", models.EventContext{"priority": "low"})

	stats = ruleEngine.Stats()
	assert.Equal(t, 2, stats.TotalWorkflows)
	assert.Equal(t, 1, stats.ActiveWorkflows)
	assert.Equal(t, 2, stats.TotalExecutions)
	assert.Equal(t, 1, stats.SuccessfulExecutions)
	assert.Equal(t, 1, stats.FailedExecutions)
	assert.InEpsilon(t, 50.0, stats.SuccessRate, 0.0001)
}
