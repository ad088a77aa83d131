// Package scheduler runs recurring background jobs on cron expressions,
// such as the periodic follow-up pass over stale leads.
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a running cron instance.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a scheduler. Expressions use the standard
// five fields (minute, hour, day of month, month, day of week). Panicking
// jobs are recovered and logged rather than taking the process down.
func NewScheduler() *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(slogCronLogger{})))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules task on the given cron expression. An invalid expression
// is reported without scheduling anything.
func (s *Scheduler) AddJob(expr string, task func()) error {
	id, err := s.cron.AddFunc(expr, task)
	if err != nil {
		return err
	}
	slog.Debug("Scheduler.AddJob: job scheduled", "expr", expr, "id", id)
	return nil
}

// Stop halts the scheduler. Running jobs complete; no new jobs start.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// slogCronLogger adapts slog to the cron.Logger interface so recovered
// panics land in the application log.
type slogCronLogger struct{}

func (slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Info("Scheduler: "+msg, keysAndValues...)
}

func (slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("Scheduler: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
