package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nyxlabs/recall/pkg/tokenizer"
)

// briefingTaskLimit and briefingReminderLimit cap the briefing query per
// spec.md §4.4.
const (
	briefingTaskLimit     = 20
	briefingReminderLimit = 20
)

// TaskSummary is the briefing-relevant projection of a task.
type TaskSummary struct {
	ID          string
	Description string
	DueAt       *time.Time
}

// ReminderSummary is the briefing-relevant projection of a reminder.
type ReminderSummary struct {
	ID      string
	Content string
	FireAt  time.Time
}

// BriefingSource is Core's read surface for building a briefing, satisfied
// by pkg/gatewayclient.CoreClient over HTTP.
type BriefingSource interface {
	ListOpenTasks(ctx context.Context, userID string, limit int) ([]TaskSummary, error)
	ListUpcomingReminders(ctx context.Context, userID string, limit int) ([]ReminderSummary, error)
}

// BuildBriefing renders the tasks/reminders/previous-conversation sections
// described in spec.md §4.4, trimming trailing lines until the result fits
// budgetTokens. Errors from Core are tolerated: the affected section falls
// back to its "no items" placeholder rather than failing the turn.
func BuildBriefing(ctx context.Context, source BriefingSource, userID, sessionSummary string, budgetTokens int, logger *slog.Logger) string {
	tasksSection := renderTasksSection(ctx, source, userID, logger)
	remindersSection := renderRemindersSection(ctx, source, userID, logger)
	summarySection := renderSummarySection(sessionSummary)

	full := strings.Join([]string{tasksSection, remindersSection, summarySection}, "\n\n")
	return trimToBudget(full, budgetTokens)
}

func renderTasksSection(ctx context.Context, source BriefingSource, userID string, logger *slog.Logger) string {
	tasks, err := source.ListOpenTasks(ctx, userID, briefingTaskLimit)
	if err != nil {
		logger.Warn("briefing: listing open tasks failed, using placeholder", "error", err)
		return "Open tasks:\n(no items)"
	}
	if len(tasks) == 0 {
		return "Open tasks:\n(no items)"
	}
	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, "Open tasks:")
	for _, t := range tasks {
		if t.DueAt != nil {
			lines = append(lines, fmt.Sprintf("- %s (due %s)", t.Description, t.DueAt.Format(time.RFC3339)))
		} else {
			lines = append(lines, fmt.Sprintf("- %s", t.Description))
		}
	}
	return strings.Join(lines, "\n")
}

func renderRemindersSection(ctx context.Context, source BriefingSource, userID string, logger *slog.Logger) string {
	reminders, err := source.ListUpcomingReminders(ctx, userID, briefingReminderLimit)
	if err != nil {
		logger.Warn("briefing: listing upcoming reminders failed, using placeholder", "error", err)
		return "Upcoming reminders:\n(no items)"
	}
	if len(reminders) == 0 {
		return "Upcoming reminders:\n(no items)"
	}
	lines := make([]string, 0, len(reminders)+1)
	lines = append(lines, "Upcoming reminders:")
	for _, r := range reminders {
		lines = append(lines, fmt.Sprintf("- %s at %s", r.Content, r.FireAt.Format(time.RFC3339)))
	}
	return strings.Join(lines, "\n")
}

func renderSummarySection(sessionSummary string) string {
	if strings.TrimSpace(sessionSummary) == "" {
		return "Previous conversation:\n(no items)"
	}
	return "Previous conversation:\n" + sessionSummary
}

// trimToBudget drops trailing lines until text fits within budgetTokens,
// per spec.md §4.4.
func trimToBudget(text string, budgetTokens int) string {
	if budgetTokens <= 0 {
		return ""
	}
	if tokenizer.Count(text) <= budgetTokens {
		return text
	}
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && tokenizer.Count(strings.Join(lines, "\n")) > budgetTokens {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
