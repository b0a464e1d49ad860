package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Comment is a message on a feature request. Internal comments are visible to staff only.
type Comment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	RequestID  uuid.UUID `json:"request_id" db:"request_id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	AuthorID   uuid.UUID `json:"author_id" db:"author_id"`
	AuthorRole Role      `json:"author_role" db:"author_role"`
	Content    string    `json:"content" db:"content"`
	IsInternal bool      `json:"is_internal" db:"is_internal"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Attachment is file metadata uploaded against a request. Immutable once stored.
type Attachment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	RequestID  uuid.UUID `json:"request_id" db:"request_id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	FileURL    string    `json:"file_url" db:"file_url"`
	FileName   string    `json:"file_name" db:"file_name"`
	UploadedBy uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	FileSize   int64     `json:"file_size" db:"file_size"`
	MimeType   string    `json:"mime_type" db:"mime_type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// EventKind says how a status change was made.
type EventKind string

const (
	EventKindTransition EventKind = "transition"
	EventKindOverride   EventKind = "override"
)

// StatusEvent is one row of a request's append-only status history.
type StatusEvent struct {
	ID         uuid.UUID `json:"id" db:"id"`
	RequestID  uuid.UUID `json:"request_id" db:"request_id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	FromStatus Status    `json:"from_status" db:"from_status"`
	ToStatus   Status    `json:"to_status" db:"to_status"`
	ActorID    uuid.UUID `json:"actor_id" db:"actor_id"`
	ActorRole  Role      `json:"actor_role" db:"actor_role"`
	Kind       EventKind `json:"kind" db:"kind"`
	Reason     string    `json:"reason,omitempty" db:"reason"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
