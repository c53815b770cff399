// Package models defines the entities shared across the core service, the
// LLM worker, the chat gateway, and the assistant agent.
package models

import (
	"time"

	"github.com/google/uuid"
)

// MemoryStatus is the lifecycle state of a Memory row.
type MemoryStatus string

const (
	MemoryPending   MemoryStatus = "pending"
	MemoryConfirmed MemoryStatus = "confirmed"
)

// Valid reports whether s is a known memory status.
func (s MemoryStatus) Valid() bool {
	switch s {
	case MemoryPending, MemoryConfirmed:
		return true
	}
	return false
}

// TagStatus is the lifecycle state of a MemoryTag row.
type TagStatus string

const (
	TagSuggested TagStatus = "suggested"
	TagConfirmed TagStatus = "confirmed"
)

func (s TagStatus) Valid() bool {
	switch s {
	case TagSuggested, TagConfirmed:
		return true
	}
	return false
}

// TaskState is the completion state of a Task row.
type TaskState string

const (
	TaskNotDone TaskState = "NOT_DONE"
	TaskDone    TaskState = "DONE"
)

func (s TaskState) Valid() bool {
	switch s {
	case TaskNotDone, TaskDone:
		return true
	}
	return false
}

// EventStatus is the confirmation state of a calendar Event row.
type EventStatus string

const (
	EventPending   EventStatus = "pending"
	EventConfirmed EventStatus = "confirmed"
	EventRejected  EventStatus = "rejected"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventPending, EventConfirmed, EventRejected:
		return true
	}
	return false
}

// JobStatus is the lifecycle state of an LLMJob row.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobQueued, JobProcessing, JobCompleted, JobFailed:
		return true
	}
	return false
}

// Terminal reports whether the job status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// MediaRef describes the optional media attachment on a Memory.
type MediaRef struct {
	Type       string `json:"type"`
	BlobHandle string `json:"blob_handle"`
	LocalPath  string `json:"local_path"`
}

// Memory is a piece of content (text and/or media) owned by a user.
type Memory struct {
	ID               uuid.UUID    `json:"id"`
	OwnerUserID      string       `json:"owner_user_id"`
	Content          string       `json:"content,omitempty"`
	Media            *MediaRef    `json:"media,omitempty"`
	Status           MemoryStatus `json:"status"`
	PendingExpiresAt *time.Time   `json:"pending_expires_at,omitempty"`
	IsPinned         bool         `json:"is_pinned"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// MemoryTag links a memory to a tag string.
type MemoryTag struct {
	MemoryID    uuid.UUID  `json:"memory_id"`
	Tag         string     `json:"tag"`
	Status      TagStatus  `json:"status"`
	SuggestedAt *time.Time `json:"suggested_at,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// Task is a to-do item optionally linked to a memory.
type Task struct {
	ID                uuid.UUID  `json:"id"`
	OwnerUserID       string     `json:"owner_user_id"`
	MemoryID          *uuid.UUID `json:"memory_id,omitempty"`
	Description       string     `json:"description"`
	State             TaskState  `json:"state"`
	DueAt             *time.Time `json:"due_at,omitempty"`
	RecurrenceMinutes *int       `json:"recurrence_minutes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Reminder fires a notification at a given time, optionally recurring.
type Reminder struct {
	ID                uuid.UUID  `json:"id"`
	OwnerUserID       string     `json:"owner_user_id"`
	MemoryID          *uuid.UUID `json:"memory_id,omitempty"`
	Text              string     `json:"text"`
	FireAt            time.Time  `json:"fire_at"`
	Fired             bool       `json:"fired"`
	RecurrenceMinutes *int       `json:"recurrence_minutes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Event is a calendar-like occurrence extracted or entered for a user.
type Event struct {
	ID          uuid.UUID   `json:"id"`
	OwnerUserID string      `json:"owner_user_id"`
	Description string      `json:"description"`
	EventTime   time.Time   `json:"event_time"`
	Status      EventStatus `json:"status"`
	PendingSince *time.Time `json:"pending_since,omitempty"`
	SourceType  string      `json:"source_type"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// LLMJob is a unit of asynchronous work processed by the LLM worker.
type LLMJob struct {
	ID        uuid.UUID       `json:"id"`
	JobType   string          `json:"job_type"`
	Payload   []byte          `json:"payload"`
	OwnerUserID *string       `json:"owner_user_id,omitempty"`
	Status    JobStatus       `json:"status"`
	Result    []byte          `json:"result,omitempty"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// UserSettings holds per-user display preferences. Upserted, never deleted.
type UserSettings struct {
	UserID    string    `json:"user_id"`
	Timezone  string    `json:"timezone"`
	Language  string    `json:"language"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditAction enumerates the state-change kinds recorded by audit records.
type AuditAction string

const (
	AuditCreated  AuditAction = "created"
	AuditUpdated  AuditAction = "updated"
	AuditDeleted  AuditAction = "deleted"
	AuditFired    AuditAction = "fired"
	AuditExpired  AuditAction = "expired"
	AuditRequeued AuditAction = "requeued"
)

// AuditRecord is an append-only record of one state change.
type AuditRecord struct {
	ID         int64           `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action      AuditAction    `json:"action"`
	Actor       string         `json:"actor"`
	Detail      []byte         `json:"detail,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// BackupJob is a read-only status record about the latest backup run.
type BackupJob struct {
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	LastRunAt   time.Time `json:"last_run_at"`
	Detail      string    `json:"detail,omitempty"`
}
