// Package audit records security events. The logger is fire-and-forget:
// a failing sink never blocks or fails the request that produced the event.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/layer-3/gatekeeper/core"
	"github.com/layer-3/gatekeeper/ports"
)

// Logger is the append-only security event sink. Events go to the
// structured log and, when a publisher is configured, to the security
// event stream for cross-instance consumers.
type Logger struct {
	log       zerolog.Logger
	publisher ports.EventPublisher // may be nil for single-instance runs
	nowFunc   func() time.Time
}

// NewLogger creates an audit logger. publisher may be nil.
func NewLogger(log zerolog.Logger, publisher ports.EventPublisher) *Logger {
	return &Logger{
		log:       log.With().Str("component", "audit").Logger(),
		publisher: publisher,
		nowFunc:   time.Now,
	}
}

// Event records a security event. Details must not contain secrets;
// callers pass diagnostic detail here instead of returning it to clients.
func (l *Logger) Event(ctx context.Context, eventType core.EventType, ip string, details map[string]any) {
	event := core.SecurityEvent{
		Type:      eventType,
		Timestamp: l.nowFunc().UTC(),
		IP:        ip,
		Details:   details,
	}

	entry := l.log.Info()
	if eventType == core.EventAuthFailure || eventType == core.EventAPIError {
		entry = l.log.Warn()
	}
	entry.
		Str("event", string(event.Type)).
		Time("at", event.Timestamp).
		Str("ip", event.IP).
		Fields(event.Details).
		Msg("security event")

	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishSecurityEvent(ctx, event); err != nil {
		// Best effort: the local log already holds the event.
		l.log.Warn().Err(err).Str("event", string(event.Type)).Msg("failed to publish security event")
	}
}

// AuthAttempt records a denied or suspicious access attempt.
func (l *Logger) AuthAttempt(ctx context.Context, ip, reason, path string) {
	l.Event(ctx, core.EventAuthAttempt, ip, map[string]any{
		"reason": reason,
		"path":   path,
	})
}

// AuthSuccess records a completed wallet authentication.
func (l *Logger) AuthSuccess(ctx context.Context, ip, address string) {
	l.Event(ctx, core.EventAuthSuccess, ip, map[string]any{
		"method":  "wallet_signature",
		"address": address,
	})
}

// AuthFailure records a failed wallet authentication with the internal
// reason that is withheld from the client.
func (l *Logger) AuthFailure(ctx context.Context, ip, address, reason string) {
	l.Event(ctx, core.EventAuthFailure, ip, map[string]any{
		"method":  "wallet_signature",
		"address": address,
		"reason":  reason,
	})
}

// APIError records an unexpected internal fault.
func (l *Logger) APIError(ctx context.Context, ip, path string, err error) {
	l.Event(ctx, core.EventAPIError, ip, map[string]any{
		"path":  path,
		"error": err.Error(),
	})
}
