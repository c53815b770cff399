package llmclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/packages/param"

	"github.com/nyxlabs/recall/pkg/agent"
)

// AgentAdapter satisfies agent.ModelClient over a Client, translating
// between pkg/agent's transport-agnostic message/tool types and the
// openai-go SDK shapes this package wraps. Keeping the conversion here
// (rather than in pkg/agent) keeps pkg/agent free of any third-party
// dependency, mirroring the teacher's own LLMClient seam
// (pkg/agent/llm_client.go).
type AgentAdapter struct {
	client *Client
}

// NewAgentAdapter wraps an existing Client for use as an agent.ModelClient.
func NewAgentAdapter(client *Client) *AgentAdapter {
	return &AgentAdapter{client: client}
}

func (a *AgentAdapter) Complete(ctx context.Context, messages []agent.Message, tools []agent.ToolDefinition) (agent.ModelReply, error) {
	sdkMessages, err := toSDKMessages(messages)
	if err != nil {
		return agent.ModelReply{}, err
	}
	sdkTools := toSDKTools(tools)

	msg, err := a.client.CompleteWithTools(ctx, sdkMessages, sdkTools)
	if err != nil {
		return agent.ModelReply{}, err
	}

	reply := agent.ModelReply{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, agent.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return reply, nil
}

func (a *AgentAdapter) Summarize(ctx context.Context, text string) (string, error) {
	const systemPrompt = "Summarize the following conversation excerpt in a few sentences, preserving concrete facts, names, dates, and decisions. Do not editorialize."
	return a.client.Complete(ctx, systemPrompt, text)
}

func toSDKMessages(messages []agent.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case agent.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case agent.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case agent.RoleAssistant:
			assistantMsg := openai.ChatCompletionAssistantMessageParam{
				Content: openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(m.Content),
				},
			}
			for _, tc := range m.ToolCalls {
				assistantMsg.ToolCalls = append(assistantMsg.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistantMsg})
		case agent.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			return nil, fmt.Errorf("unknown message role %q", m.Role)
		}
	}
	return out, nil
}

func toSDKTools(tools []agent.ToolDefinition) []openai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var params map[string]any
		if t.ParametersSchema != "" {
			_ = json.Unmarshal([]byte(t.ParametersSchema), &params)
		}
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: param.NewOpt(t.Description),
			Parameters:  params,
		}))
	}
	return out
}
