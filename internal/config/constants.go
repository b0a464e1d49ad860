package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout = 30 * time.Second
	ServerReadTimeout  = 15 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ShutdownTimeout    = 10 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days
)

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true

	SessionName = "gymdash-session"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; img-src 'self' data: https:;"
)

// Pagination constants
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Integration constants
const (
	DefaultLinearAPIURL = "https://api.linear.app/graphql"
)
