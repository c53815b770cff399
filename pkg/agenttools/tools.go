// Package agenttools implements the concrete tools the assistant's
// tool-calling loop can invoke: create/search memories, create/list tasks,
// create/list reminders. Grounded on the teacher's pkg/mcp.ToolExecutor
// (parse-args, invoke, wrap-errors-as-content contract) backed by Core's
// REST API instead of an MCP server.
package agenttools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nyxlabs/recall/pkg/agent"
	"github.com/nyxlabs/recall/pkg/gatewayclient"
)

// Compile-time check that Executor implements agent.ToolExecutor.
var _ agent.ToolExecutor = (*Executor)(nil)

// Executor implements agent.ToolExecutor over a gatewayclient.CoreClient.
type Executor struct {
	core *gatewayclient.CoreClient
}

// NewExecutor builds an Executor.
func NewExecutor(core *gatewayclient.CoreClient) *Executor {
	return &Executor{core: core}
}

// ListTools returns the fixed tool set this executor supports.
func (e *Executor) ListTools(ctx context.Context) ([]agent.ToolDefinition, error) {
	return definitions, nil
}

var definitions = []agent.ToolDefinition{
	{
		Name:        "create_memory",
		Description: "Save a piece of text the user wants remembered, optionally pinned and tagged.",
		ParametersSchema: `{"type":"object","properties":{
			"content":{"type":"string"},
			"pinned":{"type":"boolean"},
			"tags":{"type":"array","items":{"type":"string"}}
		},"required":["content"]}`,
	},
	{
		Name:        "search_memories",
		Description: "Full-text search the user's saved memories.",
		ParametersSchema: `{"type":"object","properties":{
			"query":{"type":"string"},
			"pinned_only":{"type":"boolean"}
		},"required":["query"]}`,
	},
	{
		Name:        "create_task",
		Description: "Create a to-do item for the user, optionally with a due date (RFC3339).",
		ParametersSchema: `{"type":"object","properties":{
			"description":{"type":"string"},
			"due_at":{"type":"string"}
		},"required":["description"]}`,
	},
	{
		Name:        "list_open_tasks",
		Description: "List the user's not-yet-done tasks.",
		ParametersSchema: `{"type":"object","properties":{}}`,
	},
	{
		Name:        "create_reminder",
		Description: "Schedule a reminder for the user at a given time (RFC3339).",
		ParametersSchema: `{"type":"object","properties":{
			"text":{"type":"string"},
			"fire_at":{"type":"string"}
		},"required":["text","fire_at"]}`,
	},
	{
		Name:        "list_upcoming_reminders",
		Description: "List the user's upcoming, not-yet-fired reminders.",
		ParametersSchema: `{"type":"object","properties":{}}`,
	},
}

// Execute dispatches call.Name to its handler. Every failure — argument
// parsing, Core rejecting the request — is returned as error content per
// the teacher's MCP convention, never as a Go error, so the model always
// sees a tool turn to reason about.
func (e *Executor) Execute(ctx context.Context, call agent.ToolCall) (*agent.ToolResult, error) {
	var args map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return errResult(call, fmt.Sprintf("invalid arguments: %s", err)), nil
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	owner, _ := args["owner_user_id"].(string)
	if owner == "" {
		return errResult(call, "missing owner_user_id"), nil
	}

	switch call.Name {
	case "create_memory":
		return e.createMemory(ctx, call, owner, args), nil
	case "search_memories":
		return e.searchMemories(ctx, call, owner, args), nil
	case "create_task":
		return e.createTask(ctx, call, owner, args), nil
	case "list_open_tasks":
		return e.listOpenTasks(ctx, call, owner), nil
	case "create_reminder":
		return e.createReminder(ctx, call, owner, args), nil
	case "list_upcoming_reminders":
		return e.listUpcomingReminders(ctx, call, owner), nil
	default:
		return errResult(call, fmt.Sprintf("unknown tool %q", call.Name)), nil
	}
}

func (e *Executor) createMemory(ctx context.Context, call agent.ToolCall, owner string, args map[string]any) *agent.ToolResult {
	content, _ := args["content"].(string)
	if content == "" {
		return errResult(call, "content is required")
	}
	pinned, _ := args["pinned"].(bool)
	tags := stringSlice(args["tags"])

	m, err := e.core.CreateMemory(ctx, owner, content, pinned, tags)
	if err != nil {
		return errResult(call, err.Error())
	}
	return okResult(call, m)
}

func (e *Executor) searchMemories(ctx context.Context, call agent.ToolCall, owner string, args map[string]any) *agent.ToolResult {
	query, _ := args["query"].(string)
	pinnedOnly, _ := args["pinned_only"].(bool)
	hits, err := e.core.SearchMemories(ctx, owner, query, pinnedOnly, 10)
	if err != nil {
		return errResult(call, err.Error())
	}
	return okResult(call, hits)
}

func (e *Executor) createTask(ctx context.Context, call agent.ToolCall, owner string, args map[string]any) *agent.ToolResult {
	description, _ := args["description"].(string)
	if description == "" {
		return errResult(call, "description is required")
	}
	var dueAt *time.Time
	if raw, _ := args["due_at"].(string); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return errResult(call, fmt.Sprintf("invalid due_at: %s", err))
		}
		dueAt = &t
	}
	t, err := e.core.CreateTask(ctx, owner, description, dueAt)
	if err != nil {
		return errResult(call, err.Error())
	}
	return okResult(call, t)
}

func (e *Executor) listOpenTasks(ctx context.Context, call agent.ToolCall, owner string) *agent.ToolResult {
	tasks, err := e.core.ListOpenTasks(ctx, owner, 20)
	if err != nil {
		return errResult(call, err.Error())
	}
	return okResult(call, tasks)
}

func (e *Executor) createReminder(ctx context.Context, call agent.ToolCall, owner string, args map[string]any) *agent.ToolResult {
	text, _ := args["text"].(string)
	raw, _ := args["fire_at"].(string)
	if text == "" || raw == "" {
		return errResult(call, "text and fire_at are required")
	}
	fireAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return errResult(call, fmt.Sprintf("invalid fire_at: %s", err))
	}
	r, err := e.core.CreateReminder(ctx, owner, text, fireAt)
	if err != nil {
		return errResult(call, err.Error())
	}
	return okResult(call, r)
}

func (e *Executor) listUpcomingReminders(ctx context.Context, call agent.ToolCall, owner string) *agent.ToolResult {
	reminders, err := e.core.ListUpcomingReminders(ctx, owner, 20)
	if err != nil {
		return errResult(call, err.Error())
	}
	return okResult(call, reminders)
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func okResult(call agent.ToolCall, v any) *agent.ToolResult {
	encoded, err := json.Marshal(v)
	if err != nil {
		return errResult(call, err.Error())
	}
	return &agent.ToolResult{CallID: call.ID, Name: call.Name, Content: string(encoded)}
}

func errResult(call agent.ToolCall, msg string) *agent.ToolResult {
	return &agent.ToolResult{CallID: call.ID, Name: call.Name, Content: msg, IsError: true}
}
