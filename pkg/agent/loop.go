package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// RunToolLoop drives the tool-calling cycle described in spec.md §4.4: send
// the running message list and tool schemas, and if the reply carries no
// tool calls return its text; otherwise append the assistant's tool-call
// message, execute each call, append a tool-result message per call, and
// iterate — bounded by MaxToolIterations. Grounded on the teacher's
// pkg/agent/controller iterate-until-no-tool-calls loop
// (pkg/agent/controller/iterating.go), generalized from a multi-stage
// investigation to one chat turn.
//
// ownerUserID is injected into every tool call's arguments so a tool never
// has to be told (or trusted to assert) whose data it's touching.
func RunToolLoop(ctx context.Context, model ModelClient, executor ToolExecutor, messages []Message, ownerUserID string, logger *slog.Logger) ([]Message, string, error) {
	tools, err := executor.ListTools(ctx)
	if err != nil {
		logger.Warn("listing tools failed, continuing without tools", "error", err)
		tools = nil
	}

	for iteration := 1; iteration <= MaxToolIterations; iteration++ {
		reply, err := model.Complete(ctx, messages, tools)
		if err != nil {
			return messages, "", fmt.Errorf("model completion (iteration %d): %w", iteration, err)
		}

		if len(reply.ToolCalls) == 0 {
			return messages, reply.Content, nil
		}

		messages = append(messages, Message{
			Role:      RoleAssistant,
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})

		for _, call := range reply.ToolCalls {
			args := injectOwner(call.Arguments, ownerUserID)
			call.Arguments = args

			result, err := executor.Execute(ctx, call)
			if err != nil {
				logger.Error("tool execution returned a Go error, treating as failed content", "tool", call.Name, "error", err)
				result = &ToolResult{CallID: call.ID, Name: call.Name, Content: fmt.Sprintf(`{"error":%q}`, err.Error()), IsError: true}
			}

			content := result.Content
			if result.IsError && !json.Valid([]byte(content)) {
				content = fmt.Sprintf(`{"error":%q}`, content)
			}

			messages = append(messages, Message{
				Role:       RoleTool,
				Content:    content,
				ToolCallID: call.ID,
			})
		}
	}

	logger.Warn("tool loop exceeded iteration bound", "max_iterations", MaxToolIterations)
	return messages, IterationLimitFallback, nil
}

// injectOwner parses a tool call's JSON arguments, substituting {} on parse
// failure, and sets owner_user_id before re-encoding — per spec.md §4.4's
// tool loop contract.
func injectOwner(rawArgs, ownerUserID string) string {
	args := map[string]any{}
	if rawArgs != "" {
		_ = json.Unmarshal([]byte(rawArgs), &args)
	}
	if args == nil {
		args = map[string]any{}
	}
	args["owner_user_id"] = ownerUserID
	encoded, err := json.Marshal(args)
	if err != nil {
		return rawArgs
	}
	return string(encoded)
}
