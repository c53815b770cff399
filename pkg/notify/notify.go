// Package notify defines the outbound notification envelope published on
// the "notify" Redis stream by Core's scheduler and the LLM worker, and
// consumed by the Chat Gateway.
package notify

// Type enumerates the notification kinds carried in an Envelope's Type field.
type Type string

const (
	TypeReminder         Type = "reminder"
	TypeEventReprompt    Type = "event_reprompt"
	TypeImageTagResult   Type = "image_tag_result"
	TypeIntentResult     Type = "intent_result"
	TypeFollowupResult   Type = "followup_result"
	TypeTaskMatchResult  Type = "task_match_result"
	TypeEventConfirmation Type = "event_confirmation"
	TypeJobFailed        Type = "job_failed"
	TypeDigest           Type = "digest"
)

// Stream is the Redis Stream key all notifications are published on.
const Stream = "notify"

// Envelope is the single-field-per-entry payload shape on the notify
// stream: {"type": ..., "user_id": ..., ...}. Fields is marshaled to a
// flat JSON object and stored as stream entry values under the "payload"
// field so every producer shares one serialization path.
type Envelope struct {
	Type   Type
	UserID string
	Fields map[string]any
}

// ToValues renders the envelope as the map go-redis's XAddArgs.Values
// expects, JSON-encoding Fields as payload so arbitrary per-type shapes
// travel without a stream-wide schema.
func (e Envelope) ToValues() (map[string]any, error) {
	payload, err := marshalFields(e.Type, e.UserID, e.Fields)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":    string(e.Type),
		"user_id": e.UserID,
		"payload": payload,
	}, nil
}

// Reminder builds the envelope for a fired reminder notification.
func Reminder(userID, reminderID, memoryID, memoryContent, fireAt string) Envelope {
	return Envelope{
		Type:   TypeReminder,
		UserID: userID,
		Fields: map[string]any{
			"reminder_id":    reminderID,
			"memory_id":      memoryID,
			"memory_content": memoryContent,
			"fire_at":        fireAt,
		},
	}
}

// EventReprompt builds the envelope for a stale-pending-event re-prompt.
func EventReprompt(userID, eventID, description string) Envelope {
	return Envelope{
		Type:   TypeEventReprompt,
		UserID: userID,
		Fields: map[string]any{
			"event_id":    eventID,
			"description": description,
		},
	}
}

// JobFailed builds the envelope for a terminally-failed LLM job.
func JobFailed(userID, jobID, jobType, errMsg string) Envelope {
	return Envelope{
		Type:   TypeJobFailed,
		UserID: userID,
		Fields: map[string]any{
			"job_id":   jobID,
			"job_type": jobType,
			"error":    errMsg,
		},
	}
}

// Digest builds the envelope for a user's daily briefing.
func Digest(userID, text string) Envelope {
	return Envelope{
		Type:   TypeDigest,
		UserID: userID,
		Fields: map[string]any{
			"text": text,
		},
	}
}

// TaskMatchResult builds the envelope for a confident task-match hit.
func TaskMatchResult(userID, taskID, taskDescription, memoryID string) Envelope {
	return Envelope{
		Type:   TypeTaskMatchResult,
		UserID: userID,
		Fields: map[string]any{
			"task_id":          taskID,
			"task_description": taskDescription,
			"memory_id":        memoryID,
		},
	}
}
