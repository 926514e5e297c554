// Package csrf issues and validates HMAC-signed tokens binding a session
// to a point in time. Tokens are never stored server-side: validity is
// recomputable from the token contents and the process secret.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/layer-3/gatekeeper/core"
)

// HeaderName is the request header carrying the CSRF token.
const HeaderName = "x-csrf-token"

// DefaultTokenTTL is the default token lifetime, deliberately shorter
// than the session lifetime to force periodic re-derivation.
const DefaultTokenTTL = time.Hour

// maxClockSkew bounds how far in the future a token timestamp may sit
// before it is rejected. Without this bound a future-dated timestamp
// would never age past the TTL.
const maxClockSkew = time.Minute

// payload is the signed portion of a token. JSON framing keeps the
// encoding unambiguous regardless of field contents.
type payload struct {
	SessionID string `json:"sid"`
	Timestamp int64  `json:"ts"`
	Nonce     string `json:"nonce"`
}

// Manager generates and validates CSRF tokens under a process-wide secret.
type Manager struct {
	secret   []byte
	tokenTTL time.Duration
	nowFunc  func() time.Time // for tests; defaults to time.Now
}

// NewManager creates a Manager. The secret is held in memory only and
// must never be logged.
func NewManager(secret string, tokenTTL time.Duration) *Manager {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Manager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		nowFunc:  time.Now,
	}
}

// Generate builds a token for sessionID: base64url(JSON payload) "." base64url(HMAC).
func (m *Manager) Generate(sessionID string) (string, error) {
	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	p := payload{
		SessionID: sessionID,
		Timestamp: m.nowFunc().Unix(),
		Nonce:     hex.EncodeToString(nonceBytes),
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(raw)
	sig := m.sign(encoded)

	return encoded + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Validate reports whether token is authentic, bound to sessionID, and
// fresh. It fails closed: any decoding problem yields false.
func (m *Manager) Validate(token, sessionID string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return false
	}

	encoded, sigPart := parts[0], parts[1]

	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return false
	}
	if !hmac.Equal(sig, m.sign(encoded)) {
		return false
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}

	if p.SessionID != sessionID {
		return false
	}
	age := m.nowFunc().Unix() - p.Timestamp
	if age > int64(m.tokenTTL.Seconds()) {
		return false
	}
	if age < -int64(maxClockSkew.Seconds()) {
		return false
	}

	return true
}

// ValidateRequest reads the token from the request header and validates
// it against sessionID.
func (m *Manager) ValidateRequest(r *http.Request, sessionID string) error {
	token := r.Header.Get(HeaderName)
	if token == "" {
		return core.ErrMissingCsrfToken
	}
	if !m.Validate(token, sessionID) {
		return core.ErrInvalidCsrfToken
	}
	return nil
}

func (m *Manager) sign(encodedPayload string) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(encodedPayload))
	return mac.Sum(nil)
}
