package jobqueue

import "context"

// JobTypes are the per-type input streams the LLM worker consumes,
// per spec.md §4.1.
var JobTypes = []string{"image_tag", "intent_classify", "followup", "task_match", "email_extract"}

// ConsumerGroup is the shared consumer group name for every job stream;
// every worker replica reads from it under its own consumer name.
const ConsumerGroup = "llm-worker"

// Job is one unit of work decoded from an input stream entry's payload
// field: {job_id, job_type, payload, user_id}.
type Job struct {
	ID      string
	Type    string
	Payload []byte
	UserID  string
}

// Handler processes one job and optionally returns a notification to
// publish on the outbound stream. Returning an error signals the job
// should be retried (subject to RetryTracker/backoff) rather than failed
// outright — the consumer loop decides retry-vs-fail based on attempt count.
type Handler interface {
	Handle(ctx context.Context, job Job) (*NotificationEnvelope, error)
}

// NotificationEnvelope avoids an import of pkg/notify from this package's
// public Handler surface so handlers stay free to construct whichever
// notify.Envelope fits their result; the consumer loop converts.
type NotificationEnvelope struct {
	Type   string
	UserID string
	Fields map[string]any
}

// JobStore is the subset of Core's HTTP surface the worker needs to
// progress a job's status. Implemented by pkg/gatewayclient.CoreClient.
type JobStore interface {
	// ClaimJob marks the job processing. Returns terminal=true if the job
	// was already completed/failed (re-delivery after a successful PATCH
	// must be a no-op per spec.md §7/§8).
	ClaimJob(ctx context.Context, jobID string) (terminal bool, err error)
	CompleteJob(ctx context.Context, jobID string, result []byte) error
	FailJob(ctx context.Context, jobID string, errMsg string) error
}
