// Package llmhandlers implements the LLM worker's per-job-type handlers
// (pkg/jobqueue.Handler), one file per job type, per spec.md §4.1.
package llmhandlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/jobqueue"
	"github.com/nyxlabs/recall/pkg/llmclient"
	"github.com/nyxlabs/recall/pkg/models"
)

const imageTagSystemPrompt = `You are tagging an image for a personal memory app. ` +
	`Reply with a single JSON object {"description": string, "tags": [string, ...]} ` +
	`describing the image and suggesting 3-7 short lowercase topical tags. No other text.`

type imageTagPayload struct {
	MemoryID  string `json:"memory_id"`
	ImagePath string `json:"image_path"`
}

type imageTagResult struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// ImageTagHandler reads the blob at payload.image_path, asks the vision
// model to describe and tag it, and posts the tags to Core as suggested.
type ImageTagHandler struct {
	Model    *llmclient.Client
	Core     *gatewayclient.CoreClient
	MediaDir string
}

var _ jobqueue.Handler = (*ImageTagHandler)(nil)

func (h *ImageTagHandler) Handle(ctx context.Context, job jobqueue.Job) (*jobqueue.NotificationEnvelope, error) {
	var payload imageTagPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decoding image_tag payload: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(h.MediaDir, payload.ImagePath))
	if err != nil {
		return nil, fmt.Errorf("reading image blob: %w", err)
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)

	reply, err := h.Model.CompleteVision(ctx, imageTagSystemPrompt, "Tag this image.", dataURL)
	if err != nil {
		return nil, fmt.Errorf("vision completion: %w", err)
	}

	var result imageTagResult
	if err := llmclient.ExtractJSON(reply, &result); err != nil {
		return nil, fmt.Errorf("extracting image_tag result: %w", err)
	}

	if len(result.Tags) > 0 {
		if err := h.Core.AddTags(ctx, payload.MemoryID, result.Tags, models.TagSuggested); err != nil {
			return nil, fmt.Errorf("posting suggested tags: %w", err)
		}
	}

	return &jobqueue.NotificationEnvelope{
		Type:   "image_tag_result",
		UserID: job.UserID,
		Fields: map[string]any{
			"memory_id":   payload.MemoryID,
			"tags":        result.Tags,
			"description": result.Description,
		},
	}, nil
}
