package llmhandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/jobqueue"
	"github.com/nyxlabs/recall/pkg/llmclient"
)

const emailExtractSystemPrompt = `Extract calendar-like events from this email. ` +
	`Reply with a single JSON object {"events": [{"description": string, "event_time": string (RFC3339), ` +
	`"confidence": number}, ...]} and no other text. Return an empty list if nothing qualifies.`

const emailExtractConfidenceThreshold = 0.7

type emailExtractPayload struct {
	MemoryID string `json:"memory_id"`
	Content  string `json:"content"`
}

type emailExtractResult struct {
	Events []emailExtractEvent `json:"events"`
}

type emailExtractEvent struct {
	Description string  `json:"description"`
	EventTime   string  `json:"event_time"`
	Confidence  float64 `json:"confidence"`
}

// EmailExtractHandler extracts candidate events from an email's content and
// posts each confident one to Core as a pending event.
type EmailExtractHandler struct {
	Model *llmclient.Client
	Core  *gatewayclient.CoreClient
}

var _ jobqueue.Handler = (*EmailExtractHandler)(nil)

func (h *EmailExtractHandler) Handle(ctx context.Context, job jobqueue.Job) (*jobqueue.NotificationEnvelope, error) {
	var payload emailExtractPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decoding email_extract payload: %w", err)
	}

	reply, err := h.Model.Complete(ctx, emailExtractSystemPrompt, payload.Content)
	if err != nil {
		return nil, fmt.Errorf("email_extract completion: %w", err)
	}

	var result emailExtractResult
	if err := llmclient.ExtractJSON(reply, &result); err != nil {
		return nil, fmt.Errorf("extracting email_extract result: %w", err)
	}

	var notification *jobqueue.NotificationEnvelope
	for _, e := range result.Events {
		if e.Confidence <= emailExtractConfidenceThreshold {
			continue
		}
		eventTime, err := time.Parse(time.RFC3339, e.EventTime)
		if err != nil {
			continue
		}
		if _, err := h.Core.CreateEvent(ctx, job.UserID, e.Description, eventTime, "email"); err != nil {
			return nil, fmt.Errorf("posting extracted event: %w", err)
		}
		if notification == nil {
			notification = &jobqueue.NotificationEnvelope{
				Type:   "event_confirmation",
				UserID: job.UserID,
				Fields: map[string]any{
					"description": e.Description,
					"event_date":  e.EventTime,
				},
			}
		}
	}

	return notification, nil
}
