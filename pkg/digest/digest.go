// Package digest runs the assistant's daily-briefing loop: every 15
// minutes, for each allowed user, check whether it's their configured
// local digest hour and they haven't already been sent one today, and if
// so build a briefing and publish it for the gateway to deliver. Grounded
// on the teacher's pkg/cleanup/service.go ticking shape.
package digest

import (
	"context"
	"log/slog"
	"time"

	"github.com/nyxlabs/recall/pkg/agent"
	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/notify"
	"github.com/nyxlabs/recall/pkg/session"
)

// Publisher is the outbound side of the notify stream.
type Publisher interface {
	Publish(ctx context.Context, stream string, values map[string]any) (string, error)
}

// Service ticks the daily digest check for a fixed set of users.
type Service struct {
	core         *gatewayclient.CoreClient
	sessions     *session.Store
	publisher    Publisher
	digestHour   int
	tickInterval time.Duration
	budgetTokens int
	users        []string
	logger       *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a digest Service for the given allowed user list.
func New(core *gatewayclient.CoreClient, sessions *session.Store, publisher Publisher, digestHour int, tickInterval time.Duration, budgetTokens int, users []string, logger *slog.Logger) *Service {
	return &Service{
		core:         core,
		sessions:     sessions,
		publisher:    publisher,
		digestHour:   digestHour,
		tickInterval: tickInterval,
		budgetTokens: budgetTokens,
		users:        users,
		logger:       logger,
	}
}

// Start launches the background tick loop. Safe to call once.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	s.logger.Info("digest service started", "tick_interval", s.tickInterval, "digest_hour", s.digestHour)
}

// Stop signals the tick loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("digest service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick checks every allowed user, isolated per-user so one user's failure
// never blocks another's digest (spec.md §7 propagation rule).
func (s *Service) tick(ctx context.Context) {
	for _, userID := range s.users {
		s.checkUser(ctx, userID)
	}
}

func (s *Service) checkUser(ctx context.Context, userID string) {
	log := s.logger.With("user_id", userID)

	settings, err := s.core.GetSettings(ctx, userID)
	if err != nil {
		log.Error("digest: loading user settings failed", "error", err)
		return
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		log.Warn("digest: invalid timezone, falling back to UTC", "timezone", settings.Timezone, "error", err)
		loc = time.UTC
	}
	now := time.Now().In(loc)
	if now.Hour() != s.digestHour {
		return
	}
	date := now.Format("2006-01-02")

	sent, err := s.sessions.DigestSent(ctx, userID, date)
	if err != nil {
		log.Error("digest: checking sent marker failed", "error", err)
		return
	}
	if sent {
		return
	}

	summary, err := s.sessions.GetSummary(ctx, userID)
	if err != nil {
		log.Warn("digest: loading session summary failed, proceeding without it", "error", err)
		summary = ""
	}
	briefing := agent.BuildBriefing(ctx, s.core, userID, summary, s.budgetTokens, log)

	values, err := notify.Digest(userID, briefing).ToValues()
	if err != nil {
		log.Error("digest: encoding envelope failed", "error", err)
		return
	}
	if _, err := s.publisher.Publish(ctx, notify.Stream, values); err != nil {
		log.Error("digest: publishing failed", "error", err)
		return
	}

	if err := s.sessions.MarkDigestSent(ctx, userID, date); err != nil {
		log.Error("digest: marking sent failed", "error", err)
	}
}
