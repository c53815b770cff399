package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateJobThenClaimAndComplete(t *testing.T) {
	ts := newTestServer(t)

	created := postJSON(t, ts, "/llm_jobs", map[string]any{
		"job_type": "followup",
		"payload":  map[string]any{"memory_id": "m1"},
	})
	require.Equal(t, http.StatusCreated, created.StatusCode)
	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, created, &job)
	require.Equal(t, "queued", job.Status)

	claimed := patchJSON(t, ts, "/llm_jobs/"+job.ID, map[string]any{"status": "processing"})
	require.Equal(t, http.StatusOK, claimed.StatusCode)

	completed := patchJSON(t, ts, "/llm_jobs/"+job.ID, map[string]any{
		"status": "completed",
		"result": map[string]any{"question": "when?"},
	})
	require.Equal(t, http.StatusOK, completed.StatusCode)
	var final struct {
		Status string `json:"status"`
	}
	decodeBody(t, completed, &final)
	require.Equal(t, "completed", final.Status)
}

func TestPatchJobRejectsUnsupportedTransition(t *testing.T) {
	ts := newTestServer(t)
	created := postJSON(t, ts, "/llm_jobs", map[string]any{"job_type": "followup", "payload": map[string]any{}})
	var job struct {
		ID string `json:"id"`
	}
	decodeBody(t, created, &job)

	resp := patchJSON(t, ts, "/llm_jobs/"+job.ID, map[string]any{"status": "bogus"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
