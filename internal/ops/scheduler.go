package ops

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/opereon/opereon/internal/engine"
	"github.com/opereon/opereon/internal/telemetry"
)

// Scheduler runs ModelCheckOp periodically on a cron schedule, outside the
// engine's own admission loop — SPEC_FULL.md §11's "periodic drift-check
// scheduling" concern robfig/cron/v3 fills. The engine itself only ever
// runs an operation because something enqueued it; Scheduler is that
// something, for the unattended/daemon case instead of one-shot CLI runs.
type Scheduler struct {
	eng *engine.Engine[Outcome]
	cr  *cron.Cron
}

// NewScheduler builds a Scheduler bound to eng. Call Start to begin firing.
func NewScheduler(eng *engine.Engine[Outcome]) *Scheduler {
	return &Scheduler{eng: eng, cr: cron.New()}
}

// AddCheck schedules a ModelCheckOp against path/hostFilter on spec (a
// standard five-field cron expression or a descriptor such as "@every 1m"),
// returning the entry id so callers
// can later remove it.
func (s *Scheduler) AddCheck(spec string, path, rev, hostFilter string) (cron.EntryID, error) {
	return s.cr.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		h, err := s.eng.Enqueue("scheduled-check", ModelCheckOp{Path: path, Rev: rev, HostFilter: hostFilter})
		if err != nil {
			s.logError(path, "scheduled check: enqueue failed", err)
			return
		}
		if _, err := h.Wait(ctx); err != nil {
			s.logError(path, "scheduled check: run failed", err)
		}
	})
}

// logError reports a scheduling failure through the engine's registered
// Telemetry, if any, falling back to silence rather than a package-global
// logger a scheduler running without telemetry wired in has no business
// reaching for.
func (s *Scheduler) logError(path, msg string, err error) {
	guard, gerr := engine.ServiceFor[*telemetry.Telemetry](s.eng.Registry())
	if gerr != nil {
		return
	}
	defer guard.Release()
	guard.Value().Logger.WithField("path", path).WithError(err).Error(msg)
}

// Remove cancels a previously scheduled check.
func (s *Scheduler) Remove(id cron.EntryID) { s.cr.Remove(id) }

// Start begins firing scheduled checks; it does not block.
func (s *Scheduler) Start() { s.cr.Start() }

// Stop halts the scheduler and waits for any in-flight job to finish.
func (s *Scheduler) Stop() { <-s.cr.Stop().Done() }
