// Package gatewayclient is the HTTP client back to Core's REST API, used
// by the LLM worker, the assistant agent's tools, and the chat gateway.
// Grounded on the teacher's pkg/runbook.GitHubClient shape (a single
// *http.Client plus a base URL, one method per remote operation, errors
// wrapped with the operation name).
package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/nyxlabs/recall/pkg/agent"
	"github.com/nyxlabs/recall/pkg/apierr"
	"github.com/nyxlabs/recall/pkg/jobqueue"
	"github.com/nyxlabs/recall/pkg/models"
)

// Compile-time checks that CoreClient implements agent.BriefingSource and
// pkg/jobqueue.JobStore.
var (
	_ agent.BriefingSource = (*CoreClient)(nil)
	_ jobqueue.JobStore    = (*CoreClient)(nil)
)

// CoreClient calls Core's REST API over HTTP. One instance is shared by
// every goroutine in the owning process.
type CoreClient struct {
	httpClient *http.Client
	baseURL    string
}

// New builds a CoreClient pointed at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *CoreClient {
	return &CoreClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

func (c *CoreClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling core %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading core response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return errorFromStatus(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding core response: %w", err)
	}
	return nil
}

// errorFromStatus maps a non-2xx Core response onto the same pkg/apierr
// taxonomy Core itself uses, so callers (the worker's retry logic, the
// agent's tool loop) can errors.Is/As against it like a local error.
func errorFromStatus(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Error
	if msg == "" {
		msg = string(body)
	}
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", apierr.ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", apierr.ErrConflict, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apierr.Validationf("request", "%s", msg)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", apierr.ErrUpstreamUnavailable, msg)
	default:
		return fmt.Errorf("core returned HTTP %d: %s", status, msg)
	}
}

// CreateMemory creates a memory on behalf of ownerUserID. Tags, if any, are
// attached with a follow-up AddTags call since Core's memory-creation
// endpoint has no tags field of its own.
func (c *CoreClient) CreateMemory(ctx context.Context, ownerUserID, content string, pinned bool, tags []string) (*models.Memory, error) {
	var out models.Memory
	err := c.do(ctx, http.MethodPost, "/memories", map[string]any{
		"owner_user_id": ownerUserID,
		"content":       content,
		"is_pinned":     pinned,
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := c.AddTags(ctx, out.ID.String(), tags, models.TagConfirmed); err != nil {
			return &out, fmt.Errorf("memory created but tagging failed: %w", err)
		}
	}
	return &out, nil
}

// AddTags attaches tags to an existing memory.
func (c *CoreClient) AddTags(ctx context.Context, memoryID string, tags []string, status models.TagStatus) error {
	return c.do(ctx, http.MethodPost, "/memories/"+memoryID+"/tags", map[string]any{
		"tags":   tags,
		"status": status,
	}, nil)
}

// SearchMemories runs a full-text search scoped to ownerUserID.
func (c *CoreClient) SearchMemories(ctx context.Context, ownerUserID, query string, pinnedOnly bool, limit int) ([]SearchHit, error) {
	path := fmt.Sprintf("/search?owner=%s&q=%s&pinned=%t&limit=%d",
		urlEscape(ownerUserID), urlEscape(query), pinnedOnly, limit)
	var out []SearchHit
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchHit mirrors pkg/fts.Result over the wire.
type SearchHit struct {
	MemoryID uuid.UUID `json:"memory_id"`
	Content  string    `json:"content"`
	IsPinned bool      `json:"is_pinned"`
	Rank     float64   `json:"rank"`
}

// CreateTask creates a task on behalf of ownerUserID.
func (c *CoreClient) CreateTask(ctx context.Context, ownerUserID, description string, dueAt *time.Time) (*models.Task, error) {
	var out models.Task
	err := c.do(ctx, http.MethodPost, "/tasks", map[string]any{
		"owner_user_id": ownerUserID,
		"description":   description,
		"due_at":        dueAt,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOpenTasks implements agent.BriefingSource, returning incomplete tasks
// for ownerUserID newest-first, capped at limit.
func (c *CoreClient) ListOpenTasks(ctx context.Context, ownerUserID string, limit int) ([]agent.TaskSummary, error) {
	path := fmt.Sprintf("/tasks?owner_user_id=%s&state=%s&limit=%d", urlEscape(ownerUserID), models.TaskNotDone, limit)
	var tasks []*models.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	out := make([]agent.TaskSummary, len(tasks))
	for i, t := range tasks {
		out[i] = agent.TaskSummary{ID: t.ID.String(), Description: t.Description, DueAt: t.DueAt}
	}
	return out, nil
}

// CreateReminder creates a reminder on behalf of ownerUserID.
func (c *CoreClient) CreateReminder(ctx context.Context, ownerUserID, text string, fireAt time.Time) (*models.Reminder, error) {
	var out models.Reminder
	err := c.do(ctx, http.MethodPost, "/reminders", map[string]any{
		"owner_user_id": ownerUserID,
		"text":          text,
		"fire_at":       fireAt,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUpcomingReminders implements agent.BriefingSource, returning
// not-yet-fired reminders for ownerUserID soonest-first, capped at limit.
func (c *CoreClient) ListUpcomingReminders(ctx context.Context, ownerUserID string, limit int) ([]agent.ReminderSummary, error) {
	path := fmt.Sprintf("/reminders?owner_user_id=%s&fired=false&upcoming_only=true&limit=%d", urlEscape(ownerUserID), limit)
	var reminders []*models.Reminder
	if err := c.do(ctx, http.MethodGet, path, nil, &reminders); err != nil {
		return nil, err
	}
	out := make([]agent.ReminderSummary, len(reminders))
	for i, r := range reminders {
		out[i] = agent.ReminderSummary{ID: r.ID.String(), Content: r.Text, FireAt: r.FireAt}
	}
	return out, nil
}

// GetSettings loads a user's display settings (notably timezone, used by
// the assistant's daily digest hour check).
func (c *CoreClient) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	var out models.UserSettings
	if err := c.do(ctx, http.MethodGet, "/settings/"+userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEvent creates a pending event on behalf of ownerUserID, e.g. one
// extracted from an email by the email_extract job handler.
func (c *CoreClient) CreateEvent(ctx context.Context, ownerUserID, description string, eventTime time.Time, sourceType string) (*models.Event, error) {
	var out models.Event
	err := c.do(ctx, http.MethodPost, "/events", map[string]any{
		"owner_user_id": ownerUserID,
		"description":   description,
		"event_time":    eventTime,
		"source_type":   sourceType,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimJob implements pkg/jobqueue.JobStore.
func (c *CoreClient) ClaimJob(ctx context.Context, jobID string) (bool, error) {
	var out models.LLMJob
	err := c.do(ctx, http.MethodPatch, "/llm_jobs/"+jobID, map[string]any{"status": models.JobProcessing}, &out)
	if err != nil {
		return false, err
	}
	return out.Status.Terminal(), nil
}

// CompleteJob implements pkg/jobqueue.JobStore.
func (c *CoreClient) CompleteJob(ctx context.Context, jobID string, result []byte) error {
	return c.do(ctx, http.MethodPatch, "/llm_jobs/"+jobID, map[string]any{
		"status": models.JobCompleted,
		"result": json.RawMessage(result),
	}, nil)
}

// FailJob implements pkg/jobqueue.JobStore.
func (c *CoreClient) FailJob(ctx context.Context, jobID, errMsg string) error {
	return c.do(ctx, http.MethodPatch, "/llm_jobs/"+jobID, map[string]any{
		"status": models.JobFailed,
		"error":  errMsg,
	}, nil)
}

func urlEscape(s string) string {
	return url.QueryEscape(s)
}
