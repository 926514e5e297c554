package ports

import (
	"context"

	"github.com/layer-3/gatekeeper/core"
)

// EventPublisher fans security events out to other instances or an
// external log pipeline. Publishing is best-effort: callers must not fail
// a request because an event could not be delivered.
type EventPublisher interface {
	PublishSecurityEvent(ctx context.Context, event core.SecurityEvent) error
}
