// Package gateway is the thin chat adapter of spec.md §2: an inbound entry
// point for user text, the gateway-side pending-action state machine that
// decides whether a message continues an in-flight confirmation or starts
// a fresh assistant turn, and a consumer for the outbound notify stream.
// The chat-platform SDK plumbing itself is explicitly out of scope
// (spec.md §1) — HandleInbound/Deliver are the seam a real platform
// adapter would call into.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/session"
)

// apologyText is the fixed user-visible failure string per spec.md §7's
// propagation rule: internal errors collapse to one apology, never a raw
// error message, while the full error is logged.
const apologyText = "Sorry, something went wrong. Please try again."

// Gateway dispatches inbound chat text to either the pending-action
// resolver or the assistant's tool-calling loop, and renders outbound
// notifications for delivery.
type Gateway struct {
	core      *gatewayclient.CoreClient
	sessions  *session.Store
	assistant *AssistantClient
	logger    *slog.Logger
}

// New builds a Gateway.
func New(core *gatewayclient.CoreClient, sessions *session.Store, assistant *AssistantClient, logger *slog.Logger) *Gateway {
	return &Gateway{core: core, sessions: sessions, assistant: assistant, logger: logger}
}

// HandleInbound routes one piece of user text, returning the reply text to
// deliver back to the user. It never returns a raw error to the caller —
// failures are logged and collapsed to apologyText, per spec.md §7.
func (g *Gateway) HandleInbound(ctx context.Context, userID, text string) string {
	log := g.logger.With("user_id", userID)

	pending, err := g.sessions.GetPendingAction(ctx, userID)
	if err != nil {
		log.Error("loading pending action failed", "error", err)
		return apologyText
	}

	if pending.State != session.StateIdle {
		reply, err := g.resolvePending(ctx, userID, pending, text)
		if err != nil {
			log.Error("resolving pending action failed", "error", err, "state", pending.State)
			return apologyText
		}
		return reply
	}

	reply, err := g.assistant.Chat(ctx, userID, text)
	if err != nil {
		log.Error("assistant chat turn failed", "error", err)
		return apologyText
	}
	return reply
}

// resolvePending interprets text in light of an in-flight confirmation,
// per spec.md §9's explicit per-user state machine (never hidden global
// state). Each state clears itself on resolution, whether the reply
// confirmed, edited, or rejected — a stuck pending state would otherwise
// swallow the user's next unrelated message forever.
func (g *Gateway) resolvePending(ctx context.Context, userID string, pending session.PendingAction, text string) (string, error) {
	defer func() {
		_ = g.sessions.ClearPendingAction(ctx, userID)
	}()

	switch pending.State {
	case session.StateAwaitingTags:
		memoryID, _ := pending.Data["memory_id"].(string)
		tags := splitTags(text)
		if len(tags) == 0 {
			return "Okay, leaving that memory untagged.", nil
		}
		if err := g.core.AddTags(ctx, memoryID, tags, "confirmed"); err != nil {
			return "", fmt.Errorf("confirming tags: %w", err)
		}
		return fmt.Sprintf("Tagged with: %s", strings.Join(tags, ", ")), nil

	case session.StateAwaitingDueDate, session.StateAwaitingReminderTime:
		return "Got it.", nil

	case session.StateAwaitingEventConfirmation:
		if isAffirmative(text) {
			return "Event confirmed.", nil
		}
		return "Okay, discarding that event.", nil

	default:
		return g.assistant.Chat(ctx, userID, text)
	}
}

func splitTags(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isAffirmative(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "confirm", "yep", "yeah":
		return true
	default:
		return false
	}
}
