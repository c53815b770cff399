package llmhandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nyxlabs/recall/pkg/jobqueue"
	"github.com/nyxlabs/recall/pkg/llmclient"
)

const followupSystemPrompt = `Given context about something the user saved, write one short, ` +
	`specific follow-up question to ask them. Reply with the question only, no preamble.`

type followupPayload struct {
	Prompt string `json:"prompt"`
}

// FollowupHandler asks the text model for a free-form follow-up question.
type FollowupHandler struct {
	Model *llmclient.Client
}

var _ jobqueue.Handler = (*FollowupHandler)(nil)

func (h *FollowupHandler) Handle(ctx context.Context, job jobqueue.Job) (*jobqueue.NotificationEnvelope, error) {
	var payload followupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decoding followup payload: %w", err)
	}

	reply, err := h.Model.Complete(ctx, followupSystemPrompt, payload.Prompt)
	if err != nil {
		return nil, fmt.Errorf("followup completion: %w", err)
	}

	return &jobqueue.NotificationEnvelope{
		Type:   "followup_result",
		UserID: job.UserID,
		Fields: map[string]any{
			"question": strings.TrimSpace(reply),
		},
	}, nil
}
