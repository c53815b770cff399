package llmhandlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nyxlabs/recall/pkg/llmclient"
)

// newFakeModelServer stands in for an OpenAI-compatible endpoint, always
// replying with content as the assistant message's text.
func newFakeModelServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": %s}, "finish_reason": "stop"}]
		}`, mustJSONString(content))
	}))
	t.Cleanup(server.Close)
	return server
}

func mustJSONString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func newTestModel(t *testing.T, content string) *llmclient.Client {
	server := newFakeModelServer(t, content)
	return llmclient.New(llmclient.Config{
		BaseURL:     server.URL,
		APIKey:      "test",
		TextModel:   "gpt-4o-mini",
		VisionModel: "gpt-4o-mini",
	})
}
