// Package main provides the event-driven rule evaluation worker.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gestia/automate/pkg/engine"
	"github.com/gestia/automate/pkg/eventbus"
	"github.com/gestia/automate/pkg/events"
	"github.com/gestia/automate/pkg/otelhelper"
	"github.com/gestia/automate/pkg/persistence"
	"github.com/gestia/automate/pkg/registry"
	"github.com/gestia/automate/pkg/reporter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Worker is the dispatch layer: it consumes task events from the bus,
// filters the active rules whose trigger kind matches, and evaluates
// each one sequentially in rule-creation order.
type Worker struct {
	id       string
	engine   *engine.Engine
	eventBus eventbus.EventBus
	reporter *reporter.Reporter
	tracer   trace.Tracer
	logger   *slog.Logger
}

func NewWorker(
	ctx context.Context,
	id string,
	store persistence.Store,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) (*Worker, error) {
	actionRegistry := registry.NewDefaultRegistry(eventBus, logger)

	ruleEngine, err := engine.New(ctx, store, actionRegistry, logger)
	if err != nil {
		return nil, err
	}

	tracer, err := otelhelper.NewTracer(ctx, "automate-worker")
	if err != nil {
		return nil, err
	}

	return &Worker{
		id:       id,
		engine:   ruleEngine,
		eventBus: eventBus,
		reporter: reporter.NewReporter(ruleEngine, logger),
		tracer:   tracer,
		logger:   logger,
	}, nil
}

// Start registers event handlers, launches the stats digest, and blocks
// until the process is signalled to stop.
func (w *Worker) Start(ctx context.Context, statsCron string) error {
	for _, eventType := range events.TaskEventTypes() {
		if err := w.eventBus.Handle(eventType, w.handleTaskEvent); err != nil {
			return err
		}
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		return err
	}

	if err := w.reporter.Start(statsCron); err != nil {
		return err
	}
	defer w.reporter.Stop()

	w.logger.Info("Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.Info("Shutting down worker")

	return nil
}

func (w *Worker) handleTaskEvent(ctx context.Context, event any) error {
	taskEvent, ok := event.(*events.TaskEvent)
	if !ok {
		w.logger.Error("Invalid event type for task event")

		return nil
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "handle_task_event",
		attribute.String(otelhelper.TaskIDKey, taskEvent.TaskID),
		attribute.String(otelhelper.EventTypeKey, string(taskEvent.Type)),
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	kind, ok := taskEvent.Type.TriggerKind()
	if !ok {
		w.logger.Warn("Task event type has no trigger kind", "type", taskEvent.Type)

		return nil
	}

	rules := w.engine.ActiveRules(kind)

	w.logger.Info("Processing task event",
		"task_id", taskEvent.TaskID,
		"event_type", taskEvent.Type,
		"matching_rules", len(rules))

	// One rule at a time; no rule evaluation runs concurrently with
	// another for the same event.
	for _, rule := range rules {
		execution := w.engine.Evaluate(ctx, rule, taskEvent.TaskID, taskEvent.Context)

		span.AddEvent("rule_evaluated", trace.WithAttributes(
			attribute.String(otelhelper.WorkflowIDKey, rule.ID),
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
			attribute.String("status", string(execution.Status)),
		))
	}

	return nil
}
