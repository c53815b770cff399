package llmhandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/jobqueue"
	"github.com/nyxlabs/recall/pkg/llmclient"
)

const taskMatchSystemPrompt = `You match a newly saved memory against a user's open tasks. ` +
	`Reply with a single JSON object {"matched_task_id": string|null, "confidence": number, "reason": string} ` +
	`and no other text. Set matched_task_id to null if nothing matches well.`

const taskMatchConfidenceThreshold = 0.7

type taskMatchPayload struct {
	MemoryID string `json:"memory_id"`
	Content  string `json:"content"`
}

type taskMatchResult struct {
	MatchedTaskID *string `json:"matched_task_id"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
}

// TaskMatchHandler checks whether a new memory matches one of the user's
// open tasks, emitting a notification only above the confidence threshold.
type TaskMatchHandler struct {
	Model *llmclient.Client
	Core  *gatewayclient.CoreClient
}

var _ jobqueue.Handler = (*TaskMatchHandler)(nil)

func (h *TaskMatchHandler) Handle(ctx context.Context, job jobqueue.Job) (*jobqueue.NotificationEnvelope, error) {
	var payload taskMatchPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decoding task_match payload: %w", err)
	}

	tasks, err := h.Core.ListOpenTasks(ctx, job.UserID, 20)
	if err != nil {
		return nil, fmt.Errorf("listing open tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("New memory: ")
	sb.WriteString(payload.Content)
	sb.WriteString("\n\nOpen tasks:\n")
	byID := make(map[string]string, len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&sb, "- id=%s: %s\n", t.ID, t.Description)
		byID[t.ID] = t.Description
	}

	reply, err := h.Model.Complete(ctx, taskMatchSystemPrompt, sb.String())
	if err != nil {
		return nil, fmt.Errorf("task_match completion: %w", err)
	}

	var result taskMatchResult
	if err := llmclient.ExtractJSON(reply, &result); err != nil {
		return nil, fmt.Errorf("extracting task_match result: %w", err)
	}

	if result.MatchedTaskID == nil || result.Confidence <= taskMatchConfidenceThreshold {
		return nil, nil
	}
	description, ok := byID[*result.MatchedTaskID]
	if !ok {
		return nil, nil
	}

	return &jobqueue.NotificationEnvelope{
		Type:   "task_match_result",
		UserID: job.UserID,
		Fields: map[string]any{
			"task_id":          *result.MatchedTaskID,
			"task_description": description,
			"memory_id":        payload.MemoryID,
		},
	}, nil
}
