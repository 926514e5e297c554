package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the registered claims carried by a session token.
// The jti doubles as the session identifier and revocation key.
type SessionClaims struct {
	jwt.RegisteredClaims
}
