package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/layer-3/gatekeeper/audit"
	"github.com/layer-3/gatekeeper/core"
	"github.com/layer-3/gatekeeper/internal/eth"
	"github.com/layer-3/gatekeeper/ports"
)

const (
	challengeKeyPrefix = "challenge:"
	revokedKeyPrefix   = "revoked:"
)

// AuthService handles wallet-signature authentication: it issues signing
// challenges, verifies signed challenges, and mints and validates
// session tokens.
type AuthService struct {
	store     ports.Store
	tokenizer ports.Tokenizer
	audit     *audit.Logger

	challengeTTL time.Duration
	sessionTTL   time.Duration
	nowFunc      func() time.Time // for tests; defaults to time.Now
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store ports.Store,
	tokenizer ports.Tokenizer,
	auditLog *audit.Logger,
	challengeTTL time.Duration,
	sessionTTL time.Duration,
) *AuthService {
	if challengeTTL <= 0 {
		challengeTTL = 5 * time.Minute
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		store:        store,
		tokenizer:    tokenizer,
		audit:        auditLog,
		challengeTTL: challengeTTL,
		sessionTTL:   sessionTTL,
	}
}

// IssueChallenge mints a fresh challenge for address and stores it under
// the address with a TTL. A new challenge replaces any pending one.
func (s *AuthService) IssueChallenge(ctx context.Context, address string) (*core.Challenge, error) {
	if address == "" || !common.IsHexAddress(address) {
		return nil, core.ErrMissingAddress
	}

	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := s.now()
	checksummed := common.HexToAddress(address).Hex()
	challenge := &core.Challenge{
		ID:        uuid.New().String(),
		Address:   checksummed,
		Nonce:     hex.EncodeToString(nonceBytes),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.challengeTTL),
	}
	challenge.Message = challengeMessage(challenge)

	raw, err := json.Marshal(challenge)
	if err != nil {
		return nil, fmt.Errorf("failed to encode challenge: %w", err)
	}

	if err := s.store.Set(ctx, challengeKey(address), string(raw), s.challengeTTL); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", core.ErrStoreOperation)
	}

	return challenge, nil
}

// Verify checks the signed challenge and, on success, mints a session
// token. The challenge is consumed atomically before any check runs:
// every failure is terminal and the client must request a new challenge,
// and of any concurrent verifications for the same address at most one
// can obtain the challenge and mint a session. Every failure surfaces as
// ErrMissingFields or the generic ErrVerificationFailed; the concrete
// reason goes only to the audit log so callers cannot learn which check
// failed.
func (s *AuthService) Verify(ctx context.Context, address, signature, message, clientIP string) (string, error) {
	if address == "" || signature == "" || message == "" {
		return "", core.ErrMissingFields
	}

	challenge, err := s.consumeChallenge(ctx, address)
	if err != nil {
		s.audit.AuthFailure(ctx, clientIP, address, "challenge_not_found")
		return "", core.ErrVerificationFailed
	}

	if challenge.Expired(s.now()) {
		s.audit.AuthFailure(ctx, clientIP, address, "challenge_expired")
		return "", core.ErrVerificationFailed
	}

	if message != challenge.Message {
		s.audit.AuthFailure(ctx, clientIP, address, "message_mismatch")
		return "", core.ErrVerificationFailed
	}

	if err := eth.VerifySignature(message, signature, address); err != nil {
		s.audit.AuthFailure(ctx, clientIP, address, "invalid_signature")
		return "", core.ErrVerificationFailed
	}

	now := s.now()
	session := &core.Session{
		ID:        uuid.New().String(),
		Address:   challenge.Address,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		s.audit.APIError(ctx, clientIP, "verify", err)
		return "", core.ErrVerificationFailed
	}

	s.audit.AuthSuccess(ctx, clientIP, session.Address)
	return token, nil
}

// ValidateSessionToken checks authenticity, expiry and revocation of a
// session token and returns the session it encodes.
func (s *AuthService) ValidateSessionToken(ctx context.Context, token string) (*core.Session, error) {
	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		return nil, core.ErrInvalidSession
	}

	if s.now().After(session.ExpiresAt) {
		return nil, core.ErrInvalidSession
	}

	_, err = s.store.Get(ctx, revokedKeyPrefix+session.ID)
	if err == nil {
		return nil, core.ErrSessionRevoked
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("failed to check revocation: %w", core.ErrStoreOperation)
	}

	return session, nil
}

// Logout revokes the session behind token. Revocation lives in the store
// for the token's remaining lifetime, after which expiry takes over.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	session, err := s.ValidateSessionToken(ctx, token)
	if err != nil {
		return core.ErrNoSession
	}

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.store.Set(ctx, revokedKeyPrefix+session.ID, "revoked", ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", core.ErrStoreOperation)
	}

	return nil
}

// SessionTTL returns the configured session lifetime.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// consumeChallenge removes the pending challenge for address and returns
// it. GetDel makes the removal the single-use commit point: a second
// caller, however interleaved, finds nothing.
func (s *AuthService) consumeChallenge(ctx context.Context, address string) (*core.Challenge, error) {
	raw, err := s.store.GetDel(ctx, challengeKey(address))
	if err != nil {
		return nil, core.ErrChallengeNotFound
	}

	var challenge core.Challenge
	if err := json.Unmarshal([]byte(raw), &challenge); err != nil {
		return nil, core.ErrChallengeNotFound
	}
	return &challenge, nil
}

func (s *AuthService) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now()
}

func challengeKey(address string) string {
	return challengeKeyPrefix + strings.ToLower(address)
}

// challengeMessage renders the text the wallet signs. The address, nonce
// and expiry are all embedded so a challenge for one address cannot be
// replayed against another.
func challengeMessage(c *core.Challenge) string {
	return fmt.Sprintf(
		"Sign in to your dashboard with your Ethereum account:\n%s\n\nNonce: %s\nIssued At: %s\nExpires At: %s",
		c.Address,
		c.Nonce,
		c.IssuedAt.UTC().Format(time.RFC3339),
		c.ExpiresAt.UTC().Format(time.RFC3339),
	)
}
