package core

import "time"

// EventType classifies a security event.
type EventType string

const (
	EventAuthAttempt EventType = "AUTH_ATTEMPT"
	EventAuthSuccess EventType = "AUTH_SUCCESS"
	EventAuthFailure EventType = "AUTH_FAILURE"
	EventAPIError    EventType = "API_ERROR"
)

// SecurityEvent is an append-only audit record. Events are never mutated
// or deleted; they flow to the audit log and, when configured, to the
// security event stream for external consumers.
type SecurityEvent struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	IP        string         `json:"ip,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}
