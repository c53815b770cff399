package llmhandlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nyxlabs/recall/pkg/jobqueue"
	"github.com/nyxlabs/recall/pkg/llmclient"
)

const intentClassifySystemPrompt = `Classify the user's query into an intent for a personal memory assistant. ` +
	`Reply with a single JSON object {"intent": string} and no other text.`

type intentClassifyPayload struct {
	Query string `json:"query"`
}

type intentClassifyResult struct {
	Intent string `json:"intent"`
}

// IntentClassifyHandler asks the text model to classify a free-form query.
type IntentClassifyHandler struct {
	Model *llmclient.Client
}

var _ jobqueue.Handler = (*IntentClassifyHandler)(nil)

func (h *IntentClassifyHandler) Handle(ctx context.Context, job jobqueue.Job) (*jobqueue.NotificationEnvelope, error) {
	var payload intentClassifyPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decoding intent_classify payload: %w", err)
	}

	reply, err := h.Model.Complete(ctx, intentClassifySystemPrompt, payload.Query)
	if err != nil {
		return nil, fmt.Errorf("intent completion: %w", err)
	}

	var result intentClassifyResult
	if err := llmclient.ExtractJSON(reply, &result); err != nil {
		return nil, fmt.Errorf("extracting intent_classify result: %w", err)
	}

	return &jobqueue.NotificationEnvelope{
		Type:   "intent_result",
		UserID: job.UserID,
		Fields: map[string]any{
			"query":   payload.Query,
			"intent":  result.Intent,
			"results": []any{},
		},
	}, nil
}
