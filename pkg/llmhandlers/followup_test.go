package llmhandlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nyxlabs/recall/pkg/jobqueue"
	"github.com/stretchr/testify/require"
)

func TestFollowupHandlerReturnsTrimmedQuestion(t *testing.T) {
	model := newTestModel(t, "  What time did this happen?  ")
	handler := &FollowupHandler{Model: model}

	payload, err := json.Marshal(followupPayload{Prompt: "Bought groceries"})
	require.NoError(t, err)

	notification, err := handler.Handle(context.Background(), jobqueue.Job{
		ID: "job-1", Type: "followup", UserID: "user-1", Payload: payload,
	})
	require.NoError(t, err)
	require.NotNil(t, notification)
	require.Equal(t, "followup_result", notification.Type)
	require.Equal(t, "user-1", notification.UserID)
	require.Equal(t, "What time did this happen?", notification.Fields["question"])
}

func TestFollowupHandlerRejectsBadPayload(t *testing.T) {
	model := newTestModel(t, "irrelevant")
	handler := &FollowupHandler{Model: model}

	_, err := handler.Handle(context.Background(), jobqueue.Job{Payload: []byte("not json")})
	require.Error(t, err)
}
