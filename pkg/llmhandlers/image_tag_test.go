package llmhandlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/nyxlabs/recall/pkg/jobqueue"
	"github.com/stretchr/testify/require"
)

func TestImageTagHandlerPostsSuggestedTags(t *testing.T) {
	mediaDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(mediaDir, "photo.jpg"), []byte("fake-bytes"), 0o600))

	var gotStatus string
	core := newTestCore(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Tags   []string `json:"tags"`
			Status string   `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotStatus = body.Status
		w.WriteHeader(http.StatusOK)
	})

	result, err := json.Marshal(imageTagResult{Description: "a dog in a park", Tags: []string{"dog", "park"}})
	require.NoError(t, err)
	model := newTestModel(t, string(result))

	handler := &ImageTagHandler{Model: model, Core: core, MediaDir: mediaDir}
	payload, err := json.Marshal(imageTagPayload{MemoryID: "m1", ImagePath: "photo.jpg"})
	require.NoError(t, err)

	notification, err := handler.Handle(context.Background(), jobqueue.Job{UserID: "user-1", Payload: payload})
	require.NoError(t, err)
	require.NotNil(t, notification)
	require.Equal(t, "a dog in a park", notification.Fields["description"])
	require.Equal(t, "suggested", gotStatus)
}

func TestImageTagHandlerMissingBlobFails(t *testing.T) {
	handler := &ImageTagHandler{Model: newTestModel(t, "{}"), MediaDir: t.TempDir()}
	payload, err := json.Marshal(imageTagPayload{MemoryID: "m1", ImagePath: "missing.jpg"})
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), jobqueue.Job{UserID: "user-1", Payload: payload})
	require.Error(t, err)
}
