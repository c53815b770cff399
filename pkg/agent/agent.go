package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nyxlabs/recall/pkg/session"
	"github.com/nyxlabs/recall/pkg/tokenizer"
)

// Config holds the per-turn token-budget partition from spec.md §4.4:
//
//	window = briefing_budget + response_reserve + system_prompt_tokens + chat_budget
//
// SystemPromptTemplate must contain the literal substring "{{briefing}}",
// replaced with the rendered briefing each turn.
type Config struct {
	WindowTokens          int
	BriefingBudgetTokens  int
	ResponseReserveTokens int
	SystemPromptTemplate  string
}

// Agent runs one user's conversational turn end to end: load history, build
// the briefing, summarize if needed, run the tool loop, persist the
// updated history. One Agent instance is shared across users; all
// per-user state lives in Sessions.
type Agent struct {
	Model    ModelClient
	Executor ToolExecutor
	Sessions *session.Store
	Briefing BriefingSource
	Config   Config
	Logger   *slog.Logger
}

// RunTurn implements the message cycle of spec.md §4.4 steps 1-4.
func (a *Agent) RunTurn(ctx context.Context, userID, userText string) (string, error) {
	log := a.Logger.With("user_id", userID)

	storedHistory, err := a.Sessions.GetHistory(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("loading chat history: %w", err)
	}
	history := fromSessionMessages(storedHistory)
	summary, err := a.Sessions.GetSummary(ctx, userID)
	if err != nil {
		log.Warn("loading session summary failed, proceeding without it", "error", err)
		summary = ""
	}

	briefingText := BuildBriefing(ctx, a.Briefing, userID, summary, a.Config.BriefingBudgetTokens, log)
	systemPrompt := strings.Replace(a.Config.SystemPromptTemplate, "{{briefing}}", briefingText, 1)
	systemTokens := tokenizer.Count(systemPrompt)

	chatBudget := a.Config.WindowTokens - a.Config.BriefingBudgetTokens - a.Config.ResponseReserveTokens - systemTokens
	history = MaybeSummarizeHistory(ctx, a.Model, history, chatBudget, log)

	turn := make([]Message, 0, len(history)+2)
	turn = append(turn, Message{Role: RoleSystem, Content: systemPrompt})
	turn = append(turn, history...)
	turn = append(turn, Message{Role: RoleUser, Content: userText})

	_, reply, err := RunToolLoop(ctx, a.Model, a.Executor, turn, userID, log)
	if err != nil {
		return "", fmt.Errorf("running tool loop: %w", err)
	}

	newHistory := append(append([]Message{}, history...),
		Message{Role: RoleUser, Content: userText},
		Message{Role: RoleAssistant, Content: reply},
	)
	if err := a.Sessions.ReplaceHistory(ctx, userID, toSessionMessages(newHistory)); err != nil {
		log.Error("persisting chat history failed", "error", err)
	}

	return reply, nil
}

func toSessionMessages(msgs []Message) []session.Message {
	out := make([]session.Message, len(msgs))
	for i, m := range msgs {
		out[i] = session.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func fromSessionMessages(msgs []session.Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = Message{Role: Role(m.Role), Content: m.Content}
	}
	return out
}
