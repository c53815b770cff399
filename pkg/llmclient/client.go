// Package llmclient wraps the OpenAI-compatible chat/vision API used by the
// LLM worker's job handlers and the assistant's tool-calling loop. It
// replaces the teacher's gRPC pkg/llm/client.go with the same
// constructor/config-from-env shape against a different transport.
package llmclient

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Config carries the settings needed to reach a chat-completions-compatible
// endpoint (OpenAI itself, or any self-hosted server speaking the same API).
type Config struct {
	BaseURL     string
	APIKey      string
	TextModel   string
	VisionModel string
}

// Client is a thin wrapper over the openai-go SDK client plus the two model
// names this module's handlers need.
type Client struct {
	sdk         openai.Client
	textModel   string
	visionModel string
}

// New builds a Client from Config.
func New(cfg Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		sdk:         openai.NewClient(opts...),
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
	}
}

// Complete sends a single system+user prompt pair and returns the
// assistant's text content. Used by the text-only job handlers
// (intent_classify, followup, task_match, email_extract).
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.sdk.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.textModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteVision sends a system prompt, a text prompt, and one image
// (as a data URL) and returns the assistant's text content. Used by the
// image_tag job handler.
func (c *Client) CompleteVision(ctx context.Context, systemPrompt, userPrompt, imageDataURL string) (string, error) {
	resp, err := c.sdk.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(userPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: imageDataURL,
				}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteWithTools sends a message history plus tool schemas and returns
// the raw ChatCompletionMessage so the assistant's tool loop can inspect
// tool_calls alongside any text content.
func (c *Client) CompleteWithTools(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolUnionParam) (openai.ChatCompletionMessage, error) {
	resp, err := c.sdk.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.textModel,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("tool-calling completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("tool-calling completion returned no choices")
	}
	return resp.Choices[0].Message, nil
}
