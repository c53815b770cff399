package agenttools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxlabs/recall/pkg/agent"
	"github.com/nyxlabs/recall/pkg/gatewayclient"
)

func newTestCore(t *testing.T, handler http.HandlerFunc) *gatewayclient.CoreClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return gatewayclient.New(server.URL)
}

func TestListToolsReturnsFixedSet(t *testing.T) {
	e := NewExecutor(nil)
	tools, err := e.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 6)
}

func TestExecuteRejectsMissingOwner(t *testing.T) {
	e := NewExecutor(nil)
	result, err := e.Execute(context.Background(), agent.ToolCall{ID: "1", Name: "create_memory", Arguments: `{"content":"x"}`})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, result.Content, "owner_user_id")
}

func TestExecuteRejectsMalformedArguments(t *testing.T) {
	e := NewExecutor(nil)
	result, err := e.Execute(context.Background(), agent.ToolCall{ID: "1", Name: "create_memory", Arguments: `not json`})
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestExecuteUnknownTool(t *testing.T) {
	e := NewExecutor(nil)
	result, err := e.Execute(context.Background(), agent.ToolCall{
		ID: "1", Name: "delete_everything", Arguments: `{"owner_user_id":"u1"}`,
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, result.Content, "unknown tool")
}

func TestExecuteCreateMemorySuccess(t *testing.T) {
	core := newTestCore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"00000000-0000-0000-0000-000000000001","owner_user_id":"u1","content":"remember this","is_pinned":false}`))
	})
	e := NewExecutor(core)
	result, err := e.Execute(context.Background(), agent.ToolCall{
		ID: "1", Name: "create_memory", Arguments: `{"owner_user_id":"u1","content":"remember this"}`,
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Contains(t, result.Content, "remember this")
}

func TestExecuteCreateMemoryRequiresContent(t *testing.T) {
	e := NewExecutor(nil)
	result, err := e.Execute(context.Background(), agent.ToolCall{
		ID: "1", Name: "create_memory", Arguments: `{"owner_user_id":"u1"}`,
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, result.Content, "content is required")
}

func TestStringSlice(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, stringSlice([]any{"a", "b"}))
	require.Nil(t, stringSlice("not a slice"))
	require.Nil(t, stringSlice(nil))
}
