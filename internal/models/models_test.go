package models

import (
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"empty category", func() error { _, err := ParseCategory(""); return err }},
		{"unknown category", func() error { _, err := ParseCategory("feature"); return err }},
		{"case matters", func() error { _, err := ParsePriority("URGENT"); return err }},
		{"unknown status", func() error { _, err := ParseStatus("done"); return err }},
		{"system role is not assignable", func() error { _, err := ParseRole("system"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnknownValue))
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusReviewing.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}

func TestRole_IsStaff(t *testing.T) {
	assert.True(t, RoleStaff.IsStaff())
	assert.False(t, RoleGymOwner.IsStaff())
	assert.False(t, RoleMember.IsStaff())
	assert.False(t, RoleSystem.IsStaff())
	assert.False(t, Role("admin").IsStaff())
}

func TestFeatureRequest_MarshalJSON(t *testing.T) {
	created := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	t.Run("nullable fields render as null", func(t *testing.T) {
		r := FeatureRequest{ID: id, Status: StatusPending, CreatedAt: created, SLADeadline: created.Add(24 * time.Hour)}
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Nil(t, out["sla_met"])
		assert.Nil(t, out["dev_notes"])
		assert.Nil(t, out["assigned_to"])
		assert.Equal(t, "2024-01-11T10:00:00Z", out["sla_deadline"])
		assert.Equal(t, "pending", out["status"])
	})

	t.Run("set fields render as values", func(t *testing.T) {
		r := FeatureRequest{
			ID:             id,
			Status:         StatusCompleted,
			SLAMet:         sql.NullBool{Bool: true, Valid: true},
			DevNotes:       sql.NullString{String: "shipped", Valid: true},
			EstimatedHours: sql.NullFloat64{Float64: 3.5, Valid: true},
		}
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, true, out["sla_met"])
		assert.Equal(t, "shipped", out["dev_notes"])
		assert.Equal(t, 3.5, out["estimated_hours"])
	})
}

func TestFeatureRequestPatch_Apply(t *testing.T) {
	now := time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC)
	deadline := now.Add(time.Hour)
	r := &FeatureRequest{Status: StatusInProgress, SLADeadline: deadline, DevNotes: sql.NullString{String: "keep", Valid: true}}

	status := StatusCompleted
	met := true
	p := FeatureRequestPatch{Status: &status, CompletedAt: &now, SLAMet: &met, UpdatedAt: now}
	assert.False(t, p.IsEmpty())
	p.Apply(r)

	assert.Equal(t, StatusCompleted, r.Status)
	assert.True(t, r.SLAMet.Valid && r.SLAMet.Bool)
	assert.Equal(t, now, r.CompletedAt.Time)
	assert.Equal(t, "keep", r.DevNotes.String)
	assert.Equal(t, deadline, r.SLADeadline)

	reopen := StatusInProgress
	FeatureRequestPatch{Status: &reopen, ClearCompletion: true}.Apply(r)
	assert.False(t, r.CompletedAt.Valid)
	assert.False(t, r.SLAMet.Valid)
	assert.True(t, FeatureRequestPatch{UpdatedAt: now}.IsEmpty())
}

func TestFeatureRequestFilter_Matches(t *testing.T) {
	owner := uuid.New()
	r := &FeatureRequest{Title: "Class booking widget", Description: "Embed on homepage", Status: StatusPending, Category: CategoryIntegration, Priority: PriorityUrgent, RequesterID: owner}

	pending, done := StatusPending, StatusCompleted
	integration := CategoryIntegration
	normal := PriorityNormal
	other := uuid.New()

	assert.True(t, FeatureRequestFilter{}.Matches(r))
	assert.True(t, FeatureRequestFilter{Status: &pending, Category: &integration}.Matches(r))
	assert.False(t, FeatureRequestFilter{Status: &done}.Matches(r))
	assert.False(t, FeatureRequestFilter{Priority: &normal}.Matches(r))
	assert.True(t, FeatureRequestFilter{RequesterID: &owner}.Matches(r))
	assert.False(t, FeatureRequestFilter{RequesterID: &other}.Matches(r))
	assert.True(t, FeatureRequestFilter{Search: "BOOKING"}.Matches(r))
	assert.True(t, FeatureRequestFilter{Search: "homepage"}.Matches(r))
	assert.False(t, FeatureRequestFilter{Search: "payroll"}.Matches(r))
}

func TestUser_MarshalJSON_OmitsPasswordHash(t *testing.T) {
	u := User{
		ID:           uuid.New(),
		Username:     "owner",
		PasswordHash: sql.NullString{String: "secret-hash", Valid: true},
		Role:         RoleGymOwner,
	}
	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-hash")
	assert.Contains(t, string(data), `"tenant_id":null`)
	assert.Contains(t, string(data), `"email":null`)
}

func TestFeatureRequestSummary_MarshalJSON(t *testing.T) {
	s := FeatureRequestSummary{
		FeatureRequest: FeatureRequest{ID: uuid.New(), Title: "Waitlist", Status: StatusReviewing},
		SLAStatus:      SLALabelAtRisk,
		HoursRemaining: 2.5,
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "Waitlist", out["title"])
	assert.Equal(t, "reviewing", out["status"])
	assert.Equal(t, "at_risk", out["sla_status"])
	assert.Equal(t, 2.5, out["hours_remaining"])
	assert.Nil(t, out["completed_at"])
}

func TestFeatureRequestSummary_DecodesWhatItEncodes(t *testing.T) {
	completed := time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC)
	in := FeatureRequestSummary{
		FeatureRequest: FeatureRequest{
			ID:          uuid.New(),
			Title:       "Waitlist",
			Status:      StatusCompleted,
			SLAMet:      sql.NullBool{Bool: true, Valid: true},
			CompletedAt: sql.NullTime{Time: completed, Valid: true},
		},
		SLAStatus:      SLALabelMet,
		HoursRemaining: -1.5,
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out FeatureRequestSummary
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, sql.NullBool{Bool: true, Valid: true}, out.SLAMet)
	assert.True(t, out.CompletedAt.Time.Equal(completed))
	assert.False(t, out.ReviewedAt.Valid)
	assert.False(t, out.DevNotes.Valid)
	assert.Equal(t, SLALabelMet, out.SLAStatus)
	assert.Equal(t, -1.5, out.HoursRemaining)
}
