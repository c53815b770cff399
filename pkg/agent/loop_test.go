package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubModel struct {
	replies []ModelReply
	calls   int
}

func (m *stubModel) Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (ModelReply, error) {
	r := m.replies[m.calls]
	m.calls++
	return r, nil
}

func (m *stubModel) Summarize(ctx context.Context, text string) (string, error) {
	return "summary", nil
}

type stubExecutor struct {
	tools     []ToolDefinition
	lastCall  ToolCall
	returnErr bool
}

func (e *stubExecutor) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	e.lastCall = call
	if e.returnErr {
		return &ToolResult{CallID: call.ID, Name: call.Name, Content: "boom", IsError: true}, nil
	}
	return &ToolResult{CallID: call.ID, Name: call.Name, Content: `{"ok":true}`}, nil
}

func (e *stubExecutor) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	return e.tools, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRunToolLoopNoToolCallsReturnsText(t *testing.T) {
	model := &stubModel{replies: []ModelReply{{Content: "hello there"}}}
	executor := &stubExecutor{}

	_, text, err := RunToolLoop(context.Background(), model, executor, []Message{{Role: RoleUser, Content: "hi"}}, "user-1", discardLogger())
	require.NoError(t, err)
	require.Equal(t, "hello there", text)
	require.Equal(t, 1, model.calls)
}

func TestRunToolLoopExecutesToolThenReturns(t *testing.T) {
	model := &stubModel{replies: []ModelReply{
		{ToolCalls: []ToolCall{{ID: "call1", Name: "list_tasks", Arguments: `{"limit":5}`}}},
		{Content: "done"},
	}}
	executor := &stubExecutor{}

	messages, text, err := RunToolLoop(context.Background(), model, executor, []Message{{Role: RoleUser, Content: "show my tasks"}}, "user-42", discardLogger())
	require.NoError(t, err)
	require.Equal(t, "done", text)
	require.Equal(t, "user-42", mustArg(t, executor.lastCall.Arguments, "owner_user_id"))

	var toolMsg *Message
	for i := range messages {
		if messages[i].Role == RoleTool {
			toolMsg = &messages[i]
		}
	}
	require.NotNil(t, toolMsg)
	require.Equal(t, "call1", toolMsg.ToolCallID)
}

func TestRunToolLoopMalformedArgumentsBecomeEmptyObject(t *testing.T) {
	model := &stubModel{replies: []ModelReply{
		{ToolCalls: []ToolCall{{ID: "call1", Name: "list_tasks", Arguments: `not json`}}},
		{Content: "done"},
	}}
	executor := &stubExecutor{}

	_, _, err := RunToolLoop(context.Background(), model, executor, []Message{{Role: RoleUser, Content: "x"}}, "user-1", discardLogger())
	require.NoError(t, err)
	require.Equal(t, "user-1", mustArg(t, executor.lastCall.Arguments, "owner_user_id"))
}

func TestRunToolLoopExceedingIterationsReturnsFallback(t *testing.T) {
	replies := make([]ModelReply, MaxToolIterations)
	for i := range replies {
		replies[i] = ModelReply{ToolCalls: []ToolCall{{ID: "c", Name: "noop", Arguments: "{}"}}}
	}
	model := &stubModel{replies: replies}
	executor := &stubExecutor{}

	_, text, err := RunToolLoop(context.Background(), model, executor, []Message{{Role: RoleUser, Content: "x"}}, "user-1", discardLogger())
	require.NoError(t, err)
	require.Equal(t, IterationLimitFallback, text)
	require.Equal(t, MaxToolIterations, model.calls)
}

func TestRunToolLoopToolErrorBecomesWrappedContent(t *testing.T) {
	model := &stubModel{replies: []ModelReply{
		{ToolCalls: []ToolCall{{ID: "call1", Name: "fail_tool", Arguments: "{}"}}},
		{Content: "recovered"},
	}}
	executor := &stubExecutor{returnErr: true}

	messages, text, err := RunToolLoop(context.Background(), model, executor, []Message{{Role: RoleUser, Content: "x"}}, "user-1", discardLogger())
	require.NoError(t, err)
	require.Equal(t, "recovered", text)

	var toolMsg *Message
	for i := range messages {
		if messages[i].Role == RoleTool {
			toolMsg = &messages[i]
		}
	}
	require.NotNil(t, toolMsg)
	require.Contains(t, toolMsg.Content, "error")
}

func mustArg(t *testing.T, rawArgs, key string) string {
	t.Helper()
	var args map[string]any
	require.NoError(t, json.Unmarshal([]byte(rawArgs), &args))
	v, _ := args[key].(string)
	return v
}
