package core

import "errors"

var (
	ErrMissingAddress     = errors.New("address is required")
	ErrMissingFields      = errors.New("address, signature and message are required")
	ErrChallengeNotFound  = errors.New("no pending challenge for address")
	ErrChallengeExpired   = errors.New("challenge has expired")
	ErrVerificationFailed = errors.New("verification failed")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrNoSession          = errors.New("no active session")
	ErrInvalidSession     = errors.New("session is invalid")
	ErrSessionRevoked     = errors.New("session has been revoked")
	ErrMissingCsrfToken   = errors.New("csrf token is required")
	ErrInvalidCsrfToken   = errors.New("csrf token is invalid")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrStoreOperation     = errors.New("store operation failed")
)

// Machine-readable error codes returned to clients alongside a
// non-sensitive message. Internal detail goes only to the audit log.
const (
	CodeAuthRequired       = "AUTH_REQUIRED"
	CodeAuthInvalidSession = "AUTH_INVALID_SESSION"
	CodeAuthMissingFields  = "AUTH_MISSING_FIELDS"
	CodeAuthInvalidToken   = "AUTH_INVALID_TOKEN"
	CodeAuthFailed         = "AUTH_FAILED"
	CodeAuthError          = "AUTH_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
)
