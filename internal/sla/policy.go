// Package sla computes feature request deadlines and the live SLA label shown to users.
//
// Everything here is pure: callers pass the clock in.
package sla

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gymdash/internal/models"
)

const (
	// DefaultNormalWindow is the resolution target for normal priority requests
	DefaultNormalWindow = 24 * time.Hour
	// DefaultUrgentWindow is the same-day target for urgent requests
	DefaultUrgentWindow = 8 * time.Hour
	// DefaultAtRiskWindow is how close to the deadline an open request turns at_risk
	DefaultAtRiskWindow = 4 * time.Hour
)

// Policy holds the SLA windows.
type Policy struct {
	NormalWindow time.Duration
	UrgentWindow time.Duration
	AtRiskWindow time.Duration
}

// DefaultPolicy returns the 24h / 8h / 4h policy.
func DefaultPolicy() Policy {
	return Policy{
		NormalWindow: DefaultNormalWindow,
		UrgentWindow: DefaultUrgentWindow,
		AtRiskWindow: DefaultAtRiskWindow,
	}
}

// Validate checks 0 < urgent <= normal and a positive at-risk window.
func (p Policy) Validate() error {
	if p.NormalWindow <= 0 {
		return errors.New("sla: normal window must be positive")
	}
	if p.UrgentWindow <= 0 {
		return errors.New("sla: urgent window must be positive")
	}
	if p.UrgentWindow > p.NormalWindow {
		return fmt.Errorf("sla: urgent window %s exceeds normal window %s", p.UrgentWindow, p.NormalWindow)
	}
	if p.AtRiskWindow <= 0 {
		return errors.New("sla: at-risk window must be positive")
	}
	return nil
}

// ComputeDeadline returns the resolution deadline for a request created at createdAt.
// It must only be called once, when the request is created.
func (p Policy) ComputeDeadline(createdAt time.Time, priority models.Priority) time.Time {
	switch priority {
	case models.PriorityUrgent:
		return createdAt.Add(p.UrgentWindow)
	case models.PriorityNormal:
		return createdAt.Add(p.NormalWindow)
	}
	// Unreachable for parsed priorities; the longest window is the safe answer.
	return createdAt.Add(p.NormalWindow)
}

// DeriveLiveStatus labels a request for display. slaMet is only consulted for terminal statuses.
func (p Policy) DeriveLiveStatus(now, deadline time.Time, status models.Status, slaMet *bool) models.SLALabel {
	switch status {
	case models.StatusCompleted, models.StatusRejected:
		if slaMet != nil && *slaMet {
			return models.SLALabelMet
		}
		return models.SLALabelMissed
	case models.StatusPending, models.StatusReviewing, models.StatusInProgress:
		if now.After(deadline) {
			return models.SLALabelOverdue
		}
		if deadline.Sub(now) < p.AtRiskWindow {
			return models.SLALabelAtRisk
		}
		return models.SLALabelOnTrack
	}
	return models.SLALabelOnTrack
}

// LabelFor is DeriveLiveStatus over a stored request.
func (p Policy) LabelFor(now time.Time, r *models.FeatureRequest) models.SLALabel {
	var met *bool
	if r.SLAMet.Valid {
		met = &r.SLAMet.Bool
	}
	return p.DeriveLiveStatus(now, r.SLADeadline, r.Status, met)
}

// IsMet is the sla_met value recorded when a request reaches a terminal state.
func IsMet(completedAt, deadline time.Time) bool {
	return !completedAt.After(deadline)
}

// HoursRemaining is the time left until deadline in hours, clamped to zero.
func HoursRemaining(now, deadline time.Time) float64 {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return math.Round(d.Hours()*10) / 10
}
