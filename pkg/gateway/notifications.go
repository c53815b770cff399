package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nyxlabs/recall/pkg/notify"
	"github.com/nyxlabs/recall/pkg/session"
	"github.com/nyxlabs/recall/pkg/streams"
)

// notifyConsumerGroup is the gateway's consumer group name on the shared
// notify stream, distinct from the worker's per-job-type groups.
const notifyConsumerGroup = "gateway"

// NotificationConsumer drains the outbound notify stream and renders each
// envelope into a delivery plus, where the notification starts a
// confirmation round-trip, a pending-action state transition.
type NotificationConsumer struct {
	broker       *streams.Broker
	sessions     *session.Store
	consumerName string
	logger       *slog.Logger

	stopCh chan struct{}
}

// NewNotificationConsumer builds a NotificationConsumer.
func NewNotificationConsumer(broker *streams.Broker, sessions *session.Store, consumerName string, logger *slog.Logger) *NotificationConsumer {
	return &NotificationConsumer{
		broker:       broker,
		sessions:     sessions,
		consumerName: consumerName,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

// Setup ensures the notify stream's consumer group exists.
func (n *NotificationConsumer) Setup(ctx context.Context) error {
	if err := n.broker.EnsureGroup(ctx, notify.Stream, notifyConsumerGroup); err != nil {
		return fmt.Errorf("setting up notify consumer group: %w", err)
	}
	return nil
}

// Run drains the notify stream until ctx is cancelled or Stop is called.
// Grounded on the same poll-and-ack loop shape as pkg/jobqueue.Consumer.Run,
// simplified to a single stream with no retry tracker: a dropped
// notification is a missed chat message, not a corrupted write, so
// spec.md's Non-goals (exactly-once delivery) apply here directly.
func (n *NotificationConsumer) Run(ctx context.Context) {
	log := n.logger.With("consumer", n.consumerName)
	log.Info("notification consumer started")
	for {
		select {
		case <-ctx.Done():
			log.Info("context cancelled, notification consumer shutting down")
			return
		case <-n.stopCh:
			log.Info("notification consumer shutting down")
			return
		default:
		}

		messages, err := n.broker.ReadGroup(ctx, notifyConsumerGroup, n.consumerName, []string{notify.Stream}, 10, time.Second)
		if err != nil {
			log.Error("reading notify stream failed", "error", err)
			continue
		}
		for _, msg := range messages {
			n.handle(ctx, msg)
		}
		if len(messages) == 0 {
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// Stop signals Run to return after its current round.
func (n *NotificationConsumer) Stop() {
	close(n.stopCh)
}

func (n *NotificationConsumer) handle(ctx context.Context, msg streams.Message) {
	log := n.logger.With("message_id", msg.ID)

	notifType, _ := msg.Values["type"].(string)
	userID, _ := msg.Values["user_id"].(string)
	payloadRaw, _ := msg.Values["payload"].(string)

	var fields map[string]any
	if payloadRaw != "" {
		if err := json.Unmarshal([]byte(payloadRaw), &fields); err != nil {
			log.Error("decoding notification payload failed", "error", err)
			n.ack(ctx, msg.ID)
			return
		}
	}

	text := n.render(notify.Type(notifType), fields)
	n.deliver(userID, notifType, text)

	if err := n.transition(ctx, notify.Type(notifType), userID, fields); err != nil {
		log.Error("updating pending action for notification failed", "error", err)
	}

	n.ack(ctx, msg.ID)
}

func (n *NotificationConsumer) ack(ctx context.Context, id string) {
	if err := n.broker.Ack(ctx, notify.Stream, notifyConsumerGroup, id); err != nil {
		n.logger.Error("acking notification failed", "error", err, "message_id", id)
	}
}

// render turns a notification's fields into the text a real chat-platform
// adapter would send. This is the stand-in for the chat-platform SDK
// plumbing spec.md §1 puts out of scope.
func (n *NotificationConsumer) render(t notify.Type, fields map[string]any) string {
	switch t {
	case notify.TypeReminder:
		return fmt.Sprintf("Reminder: %v", fields["memory_content"])
	case notify.TypeEventReprompt:
		return fmt.Sprintf("Still waiting on you to confirm: %v", fields["description"])
	case notify.TypeImageTagResult:
		return fmt.Sprintf("I tagged your photo: %v — reply with different tags, or anything, to confirm.", fields["tags"])
	case notify.TypeIntentResult:
		return fmt.Sprintf("Intent: %v", fields["intent"])
	case notify.TypeFollowupResult:
		return fmt.Sprintf("%v", fields["question"])
	case notify.TypeTaskMatchResult:
		return fmt.Sprintf("This looks related to your task %q. Want me to link it?", fields["task_description"])
	case notify.TypeEventConfirmation:
		return fmt.Sprintf("Found an event in that: %q on %v. Confirm?", fields["description"], fields["event_date"])
	case notify.TypeJobFailed:
		return apologyText
	case notify.TypeDigest:
		return fmt.Sprintf("%v", fields["text"])
	default:
		return fmt.Sprintf("%v", fields)
	}
}

// transition moves the user into a pending-action state when a
// notification starts a confirmation round-trip.
func (n *NotificationConsumer) transition(ctx context.Context, t notify.Type, userID string, fields map[string]any) error {
	switch t {
	case notify.TypeImageTagResult:
		return n.sessions.SetPendingAction(ctx, userID, session.PendingAction{
			State: session.StateAwaitingTags,
			Data:  map[string]any{"memory_id": fields["memory_id"]},
		})
	case notify.TypeEventConfirmation:
		return n.sessions.SetPendingAction(ctx, userID, session.PendingAction{
			State: session.StateAwaitingEventConfirmation,
			Data:  fields,
		})
	default:
		return nil
	}
}

func (n *NotificationConsumer) deliver(userID, notifType, text string) {
	n.logger.Info("delivering notification", "user_id", userID, "type", notifType, "text", text)
}
