package llmhandlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/nyxlabs/recall/pkg/gatewayclient"
	"github.com/nyxlabs/recall/pkg/jobqueue"
	"github.com/stretchr/testify/require"
)

func newTestCore(t *testing.T, handler http.HandlerFunc) *gatewayclient.CoreClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return gatewayclient.New(server.URL)
}

func TestTaskMatchHandlerNoOpenTasks(t *testing.T) {
	core := newTestCore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	})
	model := newTestModel(t, "irrelevant")
	handler := &TaskMatchHandler{Model: model, Core: core}

	payload, err := json.Marshal(taskMatchPayload{MemoryID: "m1", Content: "buy milk"})
	require.NoError(t, err)

	notification, err := handler.Handle(context.Background(), jobqueue.Job{UserID: "user-1", Payload: payload})
	require.NoError(t, err)
	require.Nil(t, notification)
}

func TestTaskMatchHandlerBelowConfidenceThreshold(t *testing.T) {
	taskID := uuid.New()
	core := newTestCore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": taskID.String(), "owner_user_id": "user-1", "description": "buy milk", "state": "NOT_DONE"},
		})
	})
	result, err := json.Marshal(taskMatchResult{MatchedTaskID: strPtr(taskID.String()), Confidence: 0.5})
	require.NoError(t, err)
	model := newTestModel(t, string(result))
	handler := &TaskMatchHandler{Model: model, Core: core}

	payload, err := json.Marshal(taskMatchPayload{MemoryID: "m1", Content: "got milk today"})
	require.NoError(t, err)

	notification, err := handler.Handle(context.Background(), jobqueue.Job{UserID: "user-1", Payload: payload})
	require.NoError(t, err)
	require.Nil(t, notification)
}

func TestTaskMatchHandlerConfidentMatch(t *testing.T) {
	taskID := uuid.New()
	core := newTestCore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": taskID.String(), "owner_user_id": "user-1", "description": "buy milk", "state": "NOT_DONE"},
		})
	})
	result, err := json.Marshal(taskMatchResult{MatchedTaskID: strPtr(taskID.String()), Confidence: 0.95})
	require.NoError(t, err)
	model := newTestModel(t, string(result))
	handler := &TaskMatchHandler{Model: model, Core: core}

	payload, err := json.Marshal(taskMatchPayload{MemoryID: "m1", Content: "got milk today"})
	require.NoError(t, err)

	notification, err := handler.Handle(context.Background(), jobqueue.Job{UserID: "user-1", Payload: payload})
	require.NoError(t, err)
	require.NotNil(t, notification)
	require.Equal(t, "buy milk", notification.Fields["task_description"])
}

func strPtr(s string) *string { return &s }
