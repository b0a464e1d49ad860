// Package models defines data structures used throughout the gymdash services.
package models

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownValue is returned by the Parse functions for values outside a closed set.
var ErrUnknownValue = errors.New("unknown value")

// Role identifies what an actor may do. The set is closed.
type Role string

const (
	// RoleStaff is platform staff processing feature requests across tenants
	RoleStaff Role = "staff"
	// RoleGymOwner owns a tenant and submits requests
	RoleGymOwner Role = "gym_owner"
	// RoleMember is a tenant-scoped user without owner rights
	RoleMember Role = "member"
	// RoleSystem marks comments written by the service itself. Never assigned to a user.
	RoleSystem Role = "system"
)

// ParseRole accepts only roles that can be assigned to a user.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStaff, RoleGymOwner, RoleMember:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: role %q", ErrUnknownValue, s)
}

// IsStaff reports whether the role may perform staff-only mutations.
func (r Role) IsStaff() bool {
	switch r {
	case RoleStaff:
		return true
	case RoleGymOwner, RoleMember, RoleSystem:
		return false
	}
	return false
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// Tenant is a gym account. All request data is owned by exactly one tenant.
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// User represents a login. Staff users have no tenant.
type User struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	TenantID     uuid.NullUUID  `json:"tenant_id" db:"tenant_id"`
	Username     string         `json:"username" db:"username"`
	Email        sql.NullString `json:"email" db:"email"`
	PasswordHash sql.NullString `json:"-" db:"password_hash"`
	Role         Role           `json:"role" db:"role"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Actor returns the user as a lifecycle actor.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// MarshalJSON customizes JSON marshaling for User to handle sql.NullString properly
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		ID        uuid.UUID  `json:"id"`
		TenantID  *uuid.UUID `json:"tenant_id"`
		Username  string     `json:"username"`
		Email     *string    `json:"email"`
		Role      Role       `json:"role"`
		CreatedAt time.Time  `json:"created_at"`
		UpdatedAt time.Time  `json:"updated_at"`
	}{
		ID:        u.ID,
		TenantID:  nullUUIDToPointer(u.TenantID),
		Username:  u.Username,
		Email:     nullStringToPointer(u.Email),
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}

// Helper functions for converting sql.Null types to pointers
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

func nullBoolToPointer(nb sql.NullBool) *bool {
	if nb.Valid {
		return &nb.Bool
	}
	return nil
}

func nullFloat64ToPointer(nf sql.NullFloat64) *float64 {
	if nf.Valid {
		return &nf.Float64
	}
	return nil
}

func nullUUIDToPointer(nu uuid.NullUUID) *uuid.UUID {
	if nu.Valid {
		return &nu.UUID
	}
	return nil
}
