package core

import "time"

// Challenge represents a pending authentication challenge.
// A challenge is single use: successful verification consumes it.
type Challenge struct {
	ID        string    `json:"id"`        // Unique identifier for the challenge
	Address   string    `json:"address"`   // Ethereum address of the user
	Nonce     string    `json:"nonce"`     // Random nonce embedded in the message
	IssuedAt  time.Time `json:"issuedAt"`  // When the challenge was created
	ExpiresAt time.Time `json:"expiresAt"` // When the challenge expires
	Message   string    `json:"message"`   // Exact text the wallet must sign
}

// Expired reports whether the challenge has passed its expiry at the given instant.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Session represents an authenticated user session.
type Session struct {
	ID        string    // Unique session identifier (token jti)
	Address   string    // Ethereum address of the user
	IssuedAt  time.Time // When the session was created
	ExpiresAt time.Time // When the session expires
}

// RateLimitResult is the outcome of a single rate limit check.
type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}
