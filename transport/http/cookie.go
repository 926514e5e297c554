package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_token"

// CookieManager is a thin boundary over the transport-level session
// cookie. It owns the cookie attributes only; token validity is the auth
// gate's job.
type CookieManager struct {
	secure bool // Secure attribute, enabled in production
}

// NewCookieManager creates a cookie manager. secure controls the Secure
// attribute and should be true whenever the service is behind TLS.
func NewCookieManager(secure bool) *CookieManager {
	return &CookieManager{secure: secure}
}

// Attach sets the session cookie on the response.
func (m *CookieManager) Attach(c *gin.Context, token string, maxAgeSeconds int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Read returns the session token from the request, or "" when absent.
func (m *CookieManager) Read(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Clear deletes the session cookie. Used on logout and when an invalid
// session is detected.
func (m *CookieManager) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// IsPresent reports cookie existence only, with no validity check.
func (m *CookieManager) IsPresent(r *http.Request) bool {
	_, err := r.Cookie(SessionCookieName)
	return err == nil
}
