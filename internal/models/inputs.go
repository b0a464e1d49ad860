package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SLALabel is the live SLA state shown next to a request.
type SLALabel string

const (
	SLALabelMet     SLALabel = "met"
	SLALabelMissed  SLALabel = "missed"
	SLALabelOverdue SLALabel = "overdue"
	SLALabelAtRisk  SLALabel = "at_risk"
	SLALabelOnTrack SLALabel = "on_track"
)

// SLALabels lists every label, most urgent open state first.
var SLALabels = []SLALabel{SLALabelOverdue, SLALabelAtRisk, SLALabelOnTrack, SLALabelMet, SLALabelMissed}

// CreateRequestInput is what a tenant user submits. Enum fields arrive as raw strings
// and are parsed by the lifecycle service so unknown values become field-level errors.
type CreateRequestInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=10000"`
	Category    string `json:"category" validate:"required"`
	Priority    string `json:"priority"`
}

// StaffFieldsInput carries the staff-only columns. Nil fields are left unchanged.
type StaffFieldsInput struct {
	DevNotes       *string    `json:"dev_notes" validate:"omitempty,max=10000"`
	AssignedTo     *uuid.UUID `json:"assigned_to"`
	EstimatedHours *float64   `json:"estimated_hours" validate:"omitempty,gte=0,lte=10000"`
}

// AttachmentInput is metadata for a file already uploaded to object storage.
type AttachmentInput struct {
	FileURL  string `json:"file_url" validate:"required,url,max=2048"`
	FileName string `json:"file_name" validate:"required,max=255"`
	FileSize int64  `json:"file_size" validate:"gte=0,lte=52428800"`
	MimeType string `json:"mime_type" validate:"max=127"`
}

// FeatureRequestSummary is a list row: the request plus its live SLA state.
type FeatureRequestSummary struct {
	FeatureRequest
	SLAStatus      SLALabel `json:"sla_status"`
	HoursRemaining float64  `json:"hours_remaining"`
}

// MarshalJSON flattens the embedded request; without it the promoted
// FeatureRequest.MarshalJSON would drop the SLA fields.
func (s FeatureRequestSummary) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(s.FeatureRequest)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	fields["sla_status"], _ = json.Marshal(s.SLAStatus)
	fields["hours_remaining"], _ = json.Marshal(s.HoursRemaining)
	return json.Marshal(fields)
}

// UnmarshalJSON restores both the request and its SLA fields.
func (s *FeatureRequestSummary) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &s.FeatureRequest); err != nil {
		return err
	}
	var sla struct {
		SLAStatus      SLALabel `json:"sla_status"`
		HoursRemaining float64  `json:"hours_remaining"`
	}
	if err := json.Unmarshal(data, &sla); err != nil {
		return err
	}
	s.SLAStatus = sla.SLAStatus
	s.HoursRemaining = sla.HoursRemaining
	return nil
}

// FeatureRequestView is the detail page: comments are already filtered for the viewer.
type FeatureRequestView struct {
	Request        *FeatureRequest `json:"request"`
	Comments       []Comment       `json:"comments"`
	Attachments    []Attachment    `json:"attachments"`
	SLAStatus      SLALabel        `json:"sla_status"`
	HoursRemaining float64         `json:"hours_remaining"`
}

// SLAReport counts a tenant's requests per live SLA label.
type SLAReport struct {
	TenantID    uuid.UUID        `json:"tenant_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Total       int              `json:"total"`
	Counts      map[SLALabel]int `json:"counts"`
}

// IssueRef points at an issue created in an external tracker.
type IssueRef struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	URL        string `json:"url"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=256"`
}

// CreateTenantInput names a new gym account.
type CreateTenantInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreateUserInput provisions a login. Staff users must not carry a tenant; everyone
// else must.
type CreateUserInput struct {
	Username string     `json:"username" validate:"required,min=3,max=100"`
	Password string     `json:"password" validate:"required,min=8,max=256"`
	Email    string     `json:"email" validate:"omitempty,email,max=254"`
	Role     string     `json:"role" validate:"required"`
	TenantID *uuid.UUID `json:"tenant_id"`
}
