package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateAndListTasks(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts, "/tasks", map[string]any{
		"owner_user_id": "user-1",
		"description":   "buy milk",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	listResp, err := http.Get(ts.URL + "/tasks?owner_user_id=user-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var tasks []map[string]any
	decodeBody(t, listResp, &tasks)
	require.Len(t, tasks, 1)
}

func TestListTasksRequiresOwner(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/tasks")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateTaskRequiresDescription(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts, "/tasks", map[string]any{"owner_user_id": "user-1"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
