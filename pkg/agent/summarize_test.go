package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type erroringModel struct{}

func (erroringModel) Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (ModelReply, error) {
	return ModelReply{}, errors.New("unused")
}

func (erroringModel) Summarize(ctx context.Context, text string) (string, error) {
	return "", errors.New("model unavailable")
}

func TestMaybeSummarizeHistoryNoOpUnderBudget(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}
	out := MaybeSummarizeHistory(context.Background(), &stubModel{}, history, 1_000_000, discardLogger())
	require.Equal(t, history, out)
}

func TestMaybeSummarizeHistoryCompressesOlderHalf(t *testing.T) {
	history := make([]Message, 20)
	for i := range history {
		history[i] = Message{Role: RoleUser, Content: strings.Repeat("word ", 50)}
	}
	model := &stubModel{}
	model.Summarize(context.Background(), "") // warm no-op, model.Summarize always returns "summary"

	out := MaybeSummarizeHistory(context.Background(), model, history, 10, discardLogger())
	require.Equal(t, RoleSystem, out[0].Role)
	require.Contains(t, out[0].Content, "Summary of earlier conversation:")
	require.Len(t, out, 1+len(history)/2)
}

func TestMaybeSummarizeHistoryFailsOpenOnModelError(t *testing.T) {
	history := make([]Message, 20)
	for i := range history {
		history[i] = Message{Role: RoleUser, Content: strings.Repeat("word ", 50)}
	}

	out := MaybeSummarizeHistory(context.Background(), erroringModel{}, history, 10, discardLogger())
	require.Equal(t, history, out)
}
