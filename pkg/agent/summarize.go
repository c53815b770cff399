package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nyxlabs/recall/pkg/tokenizer"
)

// historyPressureRatio is the fraction of chatBudgetTokens at which history
// must be summarized, per spec.md §4.4.
const historyPressureRatio = 0.70

// MaybeSummarizeHistory checks whether history's token count exceeds 70% of
// chatBudgetTokens and, if so, summarizes the older half: the model
// condenses the concatenated "role: content" lines of that half into one
// system message "Summary of earlier conversation: <summary>", and the
// newer half is kept verbatim. Grounded on the teacher's fail-open shape
// (pkg/agent/controller/summarize.go): on model failure, keep the raw
// history untouched rather than error the turn.
func MaybeSummarizeHistory(ctx context.Context, model ModelClient, history []Message, chatBudgetTokens int, logger *slog.Logger) []Message {
	total := 0
	for _, m := range history {
		total += tokenizer.Count(m.Content)
	}
	if float64(total) <= float64(chatBudgetTokens)*historyPressureRatio {
		return history
	}

	mid := len(history) / 2
	if mid == 0 {
		return history
	}
	older, newer := history[:mid], history[mid:]

	lines := make([]string, 0, len(older))
	for _, m := range older {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}

	summary, err := model.Summarize(ctx, strings.Join(lines, "\n"))
	if err != nil {
		logger.Warn("history summarization failed, keeping raw history", "error", err)
		return history
	}

	summaryMsg := Message{Role: RoleSystem, Content: "Summary of earlier conversation: " + summary}
	return append([]Message{summaryMsg}, newer...)
}
