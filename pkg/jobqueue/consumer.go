package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nyxlabs/recall/pkg/streams"
)

// wireJob is the JSON shape carried in an input stream entry's payload
// field, per spec.md §6's stream protocol.
type wireJob struct {
	JobID   string          `json:"job_id"`
	JobType string          `json:"job_type"`
	Payload json.RawMessage `json:"payload"`
	UserID  string          `json:"user_id"`
}

// Publisher publishes the outbound notify envelope; satisfied by
// NotifyPublisher, which adds the fixed stream/marshal step on top of a
// pkg/streams.Broker (see cmd/worker's wiring).
type Publisher interface {
	Publish(ctx context.Context, envelope NotificationEnvelope) error
}

// Consumer round-robins the per-job-type streams with a shared consumer
// group, dispatching each delivered job to its registered Handler.
// Grounded on the teacher's queue.Worker poll loop (pkg/queue/worker.go):
// a for-select loop with a stop channel, brief backoff on error, one
// unit of work at a time — stream reads substitute for the teacher's
// FOR UPDATE SKIP LOCKED claim step.
type Consumer struct {
	broker       *streams.Broker
	store        JobStore
	publisher    Publisher
	handlers     map[string]Handler
	retry        *RetryTracker
	maxRetries   int
	consumerName string
	logger       *slog.Logger

	stopCh chan struct{}
}

// NewConsumer builds a Consumer. handlers must have one entry per type in
// JobTypes; consumerName should be stable per worker replica (e.g.
// "worker-"+hostname).
func NewConsumer(broker *streams.Broker, store JobStore, publisher Publisher, handlers map[string]Handler, maxRetries int, consumerName string, logger *slog.Logger) *Consumer {
	return &Consumer{
		broker:       broker,
		store:        store,
		publisher:    publisher,
		handlers:     handlers,
		retry:        NewRetryTracker(),
		maxRetries:   maxRetries,
		consumerName: consumerName,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

// Setup ensures every job stream has its consumer group, auto-creating the
// stream and swallowing BUSYGROUP, per spec.md §6.
func (c *Consumer) Setup(ctx context.Context) error {
	for _, jobType := range JobTypes {
		if err := c.broker.EnsureGroup(ctx, jobType, ConsumerGroup); err != nil {
			return fmt.Errorf("setting up group for %s: %w", jobType, err)
		}
	}
	return nil
}

// Run processes jobs until ctx is cancelled or Stop is called. It
// round-robins JobTypes, reading pending (delivered but not yet
// acknowledged) entries before new ones on each stream, and yields briefly
// after a full round that found no messages.
func (c *Consumer) Run(ctx context.Context) {
	log := c.logger.With("consumer", c.consumerName)
	log.Info("job consumer started")
	for {
		select {
		case <-ctx.Done():
			log.Info("context cancelled, consumer shutting down")
			return
		case <-c.stopCh:
			log.Info("consumer shutting down")
			return
		default:
		}

		processed := 0
		for _, jobType := range JobTypes {
			processed += c.pollStream(ctx, jobType)
		}
		if processed == 0 {
			c.sleep(yieldInterval())
		}
	}
}

// Stop signals Run to return after its current round.
func (c *Consumer) Stop() {
	close(c.stopCh)
}

func (c *Consumer) sleep(d time.Duration) {
	select {
	case <-c.stopCh:
	case <-time.After(d):
	}
}

func yieldInterval() time.Duration {
	return 800*time.Millisecond + time.Duration(rand.Int64N(int64(400*time.Millisecond)))
}

func (c *Consumer) pollStream(ctx context.Context, jobType string) int {
	pending, err := c.broker.ReadPending(ctx, ConsumerGroup, c.consumerName, jobType, 5)
	if err != nil {
		c.logger.Error("reading pending entries", "job_type", jobType, "error", err)
	}
	fresh, err := c.broker.ReadGroup(ctx, ConsumerGroup, c.consumerName, []string{jobType}, 5, time.Second)
	if err != nil {
		c.logger.Error("reading job stream", "job_type", jobType, "error", err)
	}

	messages := append(pending, fresh...)
	for _, msg := range messages {
		c.handleMessage(ctx, jobType, msg)
	}
	return len(messages)
}

func (c *Consumer) handleMessage(ctx context.Context, stream string, msg streams.Message) {
	log := c.logger.With("stream", stream, "message_id", msg.ID)

	raw, ok := msg.Values["payload"].(string)
	if !ok {
		log.Error("message missing payload field, acking to avoid poison loop")
		c.ack(ctx, stream, msg.ID)
		return
	}
	var wj wireJob
	if err := json.Unmarshal([]byte(raw), &wj); err != nil {
		log.Error("malformed job payload, acking to avoid poison loop", "error", err)
		c.ack(ctx, stream, msg.ID)
		return
	}
	job := Job{ID: wj.JobID, Type: wj.JobType, Payload: wj.Payload, UserID: wj.UserID}
	log = log.With("job_id", job.ID, "job_type", job.Type)

	handler, ok := c.handlers[job.Type]
	if !ok {
		log.Error("no handler registered for job type")
		c.ack(ctx, stream, msg.ID)
		return
	}

	terminal, err := c.store.ClaimJob(ctx, job.ID)
	if err != nil {
		log.Error("claiming job failed", "error", err)
		return // leave unacked; retried on next pending read
	}
	if terminal {
		log.Info("job already terminal, skipping re-processing")
		c.retry.Clear(job.ID)
		c.ack(ctx, stream, msg.ID)
		return
	}

	attempts := c.retry.Increment(job.ID)

	envelope, handleErr := handler.Handle(ctx, job)
	if handleErr == nil {
		var result []byte
		if envelope != nil {
			result, _ = json.Marshal(envelope.Fields)
		}
		if err := c.store.CompleteJob(ctx, job.ID, result); err != nil {
			log.Error("completing job failed", "error", err)
			return
		}
		c.retry.Clear(job.ID)
		if envelope != nil {
			if err := c.publisher.Publish(ctx, *envelope); err != nil {
				log.Error("publishing notification failed", "error", err)
			}
		}
		c.ack(ctx, stream, msg.ID)
		log.Info("job completed", "attempts", attempts)
		return
	}

	if attempts < c.maxRetries {
		log.Warn("job handler failed, retrying", "attempts", attempts, "error", handleErr)
		backoff := Backoff(attempts)
		time.Sleep(backoff)
		return // leave unacked: redelivered via ReadPending next round
	}

	log.Error("job exhausted retries, marking failed", "attempts", attempts, "error", handleErr)
	if err := c.store.FailJob(ctx, job.ID, handleErr.Error()); err != nil {
		log.Error("marking job failed failed", "error", err)
		return
	}
	c.retry.Clear(job.ID)
	_ = c.publisher.Publish(ctx, NotificationEnvelope{
		Type:   "job_failed",
		UserID: job.UserID,
		Fields: map[string]any{"job_id": job.ID, "job_type": job.Type, "error": handleErr.Error()},
	})
	c.ack(ctx, stream, msg.ID)
}

func (c *Consumer) ack(ctx context.Context, stream, id string) {
	if err := c.broker.Ack(ctx, stream, ConsumerGroup, id); err != nil {
		c.logger.Error("acking message failed", "stream", stream, "message_id", id, "error", err)
	}
}
