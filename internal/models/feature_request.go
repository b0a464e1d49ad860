package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category classifies the kind of work a gym asks for.
type Category string

const (
	CategoryNewFeature   Category = "new_feature"
	CategoryModification Category = "modification"
	CategoryIntegration  Category = "integration"
	CategoryDesign       Category = "design"
	CategoryBugFix       Category = "bug_fix"
	CategoryOther        Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryNewFeature, CategoryModification, CategoryIntegration,
	CategoryDesign, CategoryBugFix, CategoryOther,
}

// ParseCategory rejects anything outside the closed category set.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryNewFeature, CategoryModification, CategoryIntegration,
		CategoryDesign, CategoryBugFix, CategoryOther:
		return c, nil
	}
	return "", fmt.Errorf("%w: category %q", ErrUnknownValue, s)
}

// Priority selects the SLA window.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority rejects anything outside the closed priority set.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityNormal, PriorityUrgent:
		return p, nil
	}
	return "", fmt.Errorf("%w: priority %q", ErrUnknownValue, s)
}

// Status is the lifecycle state of a feature request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusReviewing  Status = "reviewing"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusReviewing, StatusInProgress, StatusCompleted, StatusRejected}

// ParseStatus rejects anything outside the closed status set.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusReviewing, StatusInProgress, StatusCompleted, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: status %q", ErrUnknownValue, s)
}

// IsTerminal reports whether no further regular transitions are possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusRejected:
		return true
	case StatusPending, StatusReviewing, StatusInProgress:
		return false
	}
	return false
}

// FeatureRequest is a tenant's request for custom work, processed by staff under an SLA.
type FeatureRequest struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	TenantID       uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	RequesterID    uuid.UUID       `json:"requester_id" db:"requester_id"`
	Title          string          `json:"title" db:"title"`
	Description    string          `json:"description" db:"description"`
	Category       Category        `json:"category" db:"category"`
	Priority       Priority        `json:"priority" db:"priority"`
	Status         Status          `json:"status" db:"status"`
	SLADeadline    time.Time       `json:"sla_deadline" db:"sla_deadline"`
	SLAMet         sql.NullBool    `json:"sla_met" db:"sla_met"`
	ReviewedAt     sql.NullTime    `json:"reviewed_at" db:"reviewed_at"`
	StartedAt      sql.NullTime    `json:"started_at" db:"started_at"`
	CompletedAt    sql.NullTime    `json:"completed_at" db:"completed_at"`
	DevNotes       sql.NullString  `json:"dev_notes" db:"dev_notes"`
	AssignedTo     uuid.NullUUID   `json:"assigned_to" db:"assigned_to"`
	EstimatedHours sql.NullFloat64 `json:"estimated_hours" db:"estimated_hours"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// featureRequestJSON is the wire form of FeatureRequest: nullable columns are pointers.
type featureRequestJSON struct {
	ID             uuid.UUID  `json:"id"`
	TenantID       uuid.UUID  `json:"tenant_id"`
	RequesterID    uuid.UUID  `json:"requester_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       Category   `json:"category"`
	Priority       Priority   `json:"priority"`
	Status         Status     `json:"status"`
	SLADeadline    time.Time  `json:"sla_deadline"`
	SLAMet         *bool      `json:"sla_met"`
	ReviewedAt     *time.Time `json:"reviewed_at"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	DevNotes       *string    `json:"dev_notes"`
	AssignedTo     *uuid.UUID `json:"assigned_to"`
	EstimatedHours *float64   `json:"estimated_hours"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// MarshalJSON renders nullable columns as JSON null instead of {"Valid":false}.
func (r FeatureRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(&featureRequestJSON{
		ID:             r.ID,
		TenantID:       r.TenantID,
		RequesterID:    r.RequesterID,
		Title:          r.Title,
		Description:    r.Description,
		Category:       r.Category,
		Priority:       r.Priority,
		Status:         r.Status,
		SLADeadline:    r.SLADeadline,
		SLAMet:         nullBoolToPointer(r.SLAMet),
		ReviewedAt:     nullTimeToPointer(r.ReviewedAt),
		StartedAt:      nullTimeToPointer(r.StartedAt),
		CompletedAt:    nullTimeToPointer(r.CompletedAt),
		DevNotes:       nullStringToPointer(r.DevNotes),
		AssignedTo:     nullUUIDToPointer(r.AssignedTo),
		EstimatedHours: nullFloat64ToPointer(r.EstimatedHours),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON. Used by API clients and tests.
func (r *FeatureRequest) UnmarshalJSON(data []byte) error {
	var w featureRequestJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = FeatureRequest{
		ID:          w.ID,
		TenantID:    w.TenantID,
		RequesterID: w.RequesterID,
		Title:       w.Title,
		Description: w.Description,
		Category:    w.Category,
		Priority:    w.Priority,
		Status:      w.Status,
		SLADeadline: w.SLADeadline,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
	if w.SLAMet != nil {
		r.SLAMet = sql.NullBool{Bool: *w.SLAMet, Valid: true}
	}
	if w.ReviewedAt != nil {
		r.ReviewedAt = sql.NullTime{Time: *w.ReviewedAt, Valid: true}
	}
	if w.StartedAt != nil {
		r.StartedAt = sql.NullTime{Time: *w.StartedAt, Valid: true}
	}
	if w.CompletedAt != nil {
		r.CompletedAt = sql.NullTime{Time: *w.CompletedAt, Valid: true}
	}
	if w.DevNotes != nil {
		r.DevNotes = sql.NullString{String: *w.DevNotes, Valid: true}
	}
	if w.AssignedTo != nil {
		r.AssignedTo = uuid.NullUUID{UUID: *w.AssignedTo, Valid: true}
	}
	if w.EstimatedHours != nil {
		r.EstimatedHours = sql.NullFloat64{Float64: *w.EstimatedHours, Valid: true}
	}
	return nil
}

// FeatureRequestPatch lists the columns an update may touch. Nil means unchanged.
// SLADeadline is not patchable.
type FeatureRequestPatch struct {
	Status         *Status
	SLAMet         *bool
	ReviewedAt     *time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	DevNotes       *string
	AssignedTo     *uuid.UUID
	EstimatedHours *float64
	// ClearCompletion nulls completed_at and sla_met. Used when an override reopens a request.
	ClearCompletion bool
	UpdatedAt       time.Time
}

// IsEmpty reports whether the patch changes nothing besides updated_at.
func (p FeatureRequestPatch) IsEmpty() bool {
	return p.Status == nil && p.SLAMet == nil && p.ReviewedAt == nil && p.StartedAt == nil &&
		p.CompletedAt == nil && p.DevNotes == nil && p.AssignedTo == nil &&
		p.EstimatedHours == nil && !p.ClearCompletion
}

// Apply copies the patch onto r. Stores use it so fakes and SQL agree on semantics.
func (p FeatureRequestPatch) Apply(r *FeatureRequest) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.ClearCompletion {
		r.CompletedAt = sql.NullTime{}
		r.SLAMet = sql.NullBool{}
	}
	if p.SLAMet != nil {
		r.SLAMet = sql.NullBool{Bool: *p.SLAMet, Valid: true}
	}
	if p.ReviewedAt != nil {
		r.ReviewedAt = sql.NullTime{Time: *p.ReviewedAt, Valid: true}
	}
	if p.StartedAt != nil {
		r.StartedAt = sql.NullTime{Time: *p.StartedAt, Valid: true}
	}
	if p.CompletedAt != nil {
		r.CompletedAt = sql.NullTime{Time: *p.CompletedAt, Valid: true}
	}
	if p.DevNotes != nil {
		r.DevNotes = sql.NullString{String: *p.DevNotes, Valid: true}
	}
	if p.AssignedTo != nil {
		r.AssignedTo = uuid.NullUUID{UUID: *p.AssignedTo, Valid: true}
	}
	if p.EstimatedHours != nil {
		r.EstimatedHours = sql.NullFloat64{Float64: *p.EstimatedHours, Valid: true}
	}
	if !p.UpdatedAt.IsZero() {
		r.UpdatedAt = p.UpdatedAt
	}
}

// FeatureRequestFilter narrows a tenant listing. Zero values mean "any".
type FeatureRequestFilter struct {
	Status      *Status
	Category    *Category
	Priority    *Priority
	RequesterID *uuid.UUID
	Search      string
	Limit       int
	Offset      int
}

// Matches reports whether r satisfies the filter's predicates (pagination is ignored).
func (f FeatureRequestFilter) Matches(r *FeatureRequest) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.Category != nil && r.Category != *f.Category {
		return false
	}
	if f.Priority != nil && r.Priority != *f.Priority {
		return false
	}
	if f.RequesterID != nil && r.RequesterID != *f.RequesterID {
		return false
	}
	if f.Search != "" && !containsFold(r.Title, f.Search) && !containsFold(r.Description, f.Search) {
		return false
	}
	return true
}
