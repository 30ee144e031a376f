// Package reporter logs periodic engine statistics digests on a cron
// schedule.
package reporter

import (
	"fmt"
	"log/slog"

	"github.com/gestia/automate/pkg/engine"
	"github.com/robfig/cron/v3"
)

type Reporter struct {
	engine *engine.Engine
	logger *slog.Logger
	cron   *cron.Cron
}

func NewReporter(ruleEngine *engine.Engine, logger *slog.Logger) *Reporter {
	return &Reporter{
		engine: ruleEngine,
		logger: logger.With("module", "stats_reporter"),
		cron:   cron.New(),
	}
}

// Start schedules the digest with a standard 5-field cron expression.
func (r *Reporter) Start(cronExpr string) error {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression '%s': %w", cronExpr, err)
	}

	_, err := r.cron.AddFunc(cronExpr, r.report)
	if err != nil {
		return err
	}

	r.cron.Start()

	return nil
}

func (r *Reporter) Stop() {
	r.cron.Stop()
}

func (r *Reporter) report() {
	stats := r.engine.Stats()

	r.logger.Info("Workflow stats digest",
		"total_workflows", stats.TotalWorkflows,
		"active_workflows", stats.ActiveWorkflows,
		"total_executions", stats.TotalExecutions,
		"successful_executions", stats.SuccessfulExecutions,
		"failed_executions", stats.FailedExecutions,
		"success_rate", stats.SuccessRate)
}
