package ports

import "github.com/layer-3/gatekeeper/core"

// Tokenizer converts sessions to and from their wire encoding.
type Tokenizer interface {
	// SessionToToken encodes a session as a signed opaque string.
	SessionToToken(session *core.Session) (string, error)

	// TokenToSession decodes and verifies a session token. It returns an
	// error for tampered, malformed or expired tokens.
	TokenToSession(token string) (*core.Session, error)
}
