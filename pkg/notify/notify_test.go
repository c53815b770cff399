package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReminderEnvelopeToValues(t *testing.T) {
	env := Reminder("user-1", "rem-1", "mem-1", "buy milk", "2026-08-01T09:00:00Z")
	values, err := env.ToValues()
	require.NoError(t, err)
	require.Equal(t, "reminder", values["type"])
	require.Equal(t, "user-1", values["user_id"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &payload))
	require.Equal(t, "reminder", payload["type"])
	require.Equal(t, "user-1", payload["user_id"])
	require.Equal(t, "rem-1", payload["reminder_id"])
	require.Equal(t, "buy milk", payload["memory_content"])
}

func TestEventRepromptEnvelope(t *testing.T) {
	env := EventReprompt("user-1", "event-1", "dentist appointment")
	values, err := env.ToValues()
	require.NoError(t, err)
	require.Equal(t, "event_reprompt", values["type"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &payload))
	require.Equal(t, "event-1", payload["event_id"])
	require.Equal(t, "dentist appointment", payload["description"])
}

func TestJobFailedEnvelope(t *testing.T) {
	env := JobFailed("user-1", "job-1", "image_tag", "vision model timed out")
	values, err := env.ToValues()
	require.NoError(t, err)
	require.Equal(t, "job_failed", values["type"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &payload))
	require.Equal(t, "job-1", payload["job_id"])
	require.Equal(t, "image_tag", payload["job_type"])
	require.Equal(t, "vision model timed out", payload["error"])
}

func TestTaskMatchResultEnvelope(t *testing.T) {
	env := TaskMatchResult("user-1", "task-1", "call the plumber", "mem-9")
	values, err := env.ToValues()
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &payload))
	require.Equal(t, "task-1", payload["task_id"])
	require.Equal(t, "mem-9", payload["memory_id"])
}
