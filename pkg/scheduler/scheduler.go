// Package scheduler runs Core's background housekeeping tick: firing due
// reminders, expiring pending media memories, expiring suggested tags, and
// re-queuing stale pending events (spec.md §4.2). Grounded on the teacher's
// pkg/cleanup/service.go ticking shape: a cancellable context loop wrapped
// around a ticker, with RunAll isolating each action so a failing action
// never blocks its siblings.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/nyxlabs/recall/pkg/notify"
	"github.com/nyxlabs/recall/pkg/store"
)

// Publisher is the outbound side of the notify stream.
type Publisher interface {
	Publish(ctx context.Context, stream string, values map[string]any) (string, error)
}

// Scheduler ticks the four housekeeping actions from spec.md §4.2.
type Scheduler struct {
	store        *store.Store
	publisher    Publisher
	tickInterval time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Scheduler. publisher is typically a *streams.Broker, kept
// as an interface here so tests can substitute a recording stub.
func New(st *store.Store, publisher Publisher, tickInterval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{store: st, publisher: publisher, tickInterval: tickInterval, logger: logger}
}

// Start launches the background tick loop. Safe to call once; a second call
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	s.logger.Info("scheduler started", "tick_interval", s.tickInterval)
}

// Stop signals the tick loop to exit and waits for it to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	s.RunAll(ctx)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunAll(ctx)
		}
	}
}

// RunAll executes the four actions, isolated so one failing action never
// blocks its siblings (spec.md §7 propagation rule). Exported so
// integration tests can drive a single tick directly.
func (s *Scheduler) RunAll(ctx context.Context) {
	s.fireDueReminders(ctx)
	s.expirePendingMedia(ctx)
	s.expireSuggestedTags(ctx)
	s.requeueStaleEvents(ctx)
}

// fireDueReminders is Action A: publish a reminder notification for every
// due reminder, then commit fired/recurrence state in one transaction. The
// publish-before-commit ordering means a crash between the two can redeliver
// a reminder notification but never lose one.
func (s *Scheduler) fireDueReminders(ctx context.Context) {
	due, err := s.store.SelectDueReminders(ctx)
	if err != nil {
		s.logger.Error("selecting due reminders failed", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}
	for _, d := range due {
		var memoryID string
		if d.Reminder.MemoryID != nil {
			memoryID = d.Reminder.MemoryID.String()
		}
		s.publish(ctx, notify.Reminder(d.Reminder.OwnerUserID, d.Reminder.ID.String(), memoryID,
			d.MemoryContent, d.Reminder.FireAt.Format(time.RFC3339)))
	}
	if err := s.store.CommitFiredReminders(ctx, due); err != nil {
		s.logger.Error("committing fired reminders failed", "error", err)
	}
}

// expirePendingMedia is Action B: delete pending memories whose
// pending_expires_at has passed.
func (s *Scheduler) expirePendingMedia(ctx context.Context) {
	n, err := s.store.ExpirePendingMemories(ctx)
	if err != nil {
		s.logger.Error("expiring pending memories failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired pending memories", "count", n)
	}
}

// expireSuggestedTags is Action C: delete suggested tags older than their TTL.
func (s *Scheduler) expireSuggestedTags(ctx context.Context) {
	n, err := s.store.ExpireSuggestedTags(ctx)
	if err != nil {
		s.logger.Error("expiring suggested tags failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired suggested tags", "count", n)
	}
}

// requeueStaleEvents is Action D: re-prompt pending events that have sat
// unconfirmed past the stale-pending age, publishing before refreshing
// pending_since to preserve the same at-least-once ordering as reminders.
func (s *Scheduler) requeueStaleEvents(ctx context.Context) {
	stale, err := s.store.SelectStalePendingEvents(ctx)
	if err != nil {
		s.logger.Error("selecting stale pending events failed", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	for _, e := range stale {
		s.publish(ctx, notify.EventReprompt(e.OwnerUserID, e.ID.String(), e.Description))
	}
	if err := s.store.RequeueStaleEvents(ctx, stale); err != nil {
		s.logger.Error("requeuing stale events failed", "error", err)
	}
}

func (s *Scheduler) publish(ctx context.Context, env notify.Envelope) {
	values, err := env.ToValues()
	if err != nil {
		s.logger.Error("encoding notification envelope failed", "type", env.Type, "error", err)
		return
	}
	if _, err := s.publisher.Publish(ctx, notify.Stream, values); err != nil {
		s.logger.Error("publishing notification failed", "type", env.Type, "error", err)
	}
}
