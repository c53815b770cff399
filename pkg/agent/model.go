package agent

import "context"

// ModelReply is a single model turn: either free text, or one or more tool
// calls to execute before the turn can continue.
type ModelReply struct {
	Content   string
	ToolCalls []ToolCall
}

// ModelClient is the Go-side interface for calling the chat model, kept
// separate from pkg/llmclient's openai-go-shaped API so this package has
// no third-party dependency of its own — mirrors the teacher's
// pkg/agent.LLMClient seam (pkg/agent/llm_client.go), simplified from
// streaming chunks to a single non-streaming reply since the assistant's
// turn isn't rendered incrementally.
type ModelClient interface {
	// Complete runs one model turn over the given messages and tool
	// schemas (nil tools means no tool-calling for this call).
	Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (ModelReply, error)

	// Summarize asks the model to condense text into a short summary.
	Summarize(ctx context.Context, text string) (string, error)
}
