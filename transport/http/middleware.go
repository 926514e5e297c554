package http

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/gatekeeper/audit"
	"github.com/layer-3/gatekeeper/core"
	"github.com/layer-3/gatekeeper/csrf"
	"github.com/layer-3/gatekeeper/ratelimit"
	"github.com/layer-3/gatekeeper/service"
)

// sessionContextKey is where the auth gate stores the validated session.
const sessionContextKey = "session"

// publicPrefixes are paths reachable without a session: the auth
// endpoints themselves and liveness.
var publicPrefixes = []string{"/auth", "/healthz"}

// staticExtensions are asset suffixes served without a session.
var staticExtensions = map[string]bool{
	".css": true, ".js": true, ".map": true, ".png": true,
	".svg": true, ".ico": true, ".woff": true, ".woff2": true,
}

func isPublicPath(requestPath string) bool {
	for _, prefix := range publicPrefixes {
		if requestPath == prefix || strings.HasPrefix(requestPath, prefix+"/") {
			return true
		}
	}
	return staticExtensions[path.Ext(requestPath)]
}

// AuthGate enforces session presence and validity on every non-public
// path and attaches baseline security headers before forwarding.
func AuthGate(authService *service.AuthService, cookies *CookieManager, auditLog *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := cookies.Read(c.Request)
		if token == "" {
			auditLog.AuthAttempt(c.Request.Context(), c.ClientIP(), "no_session", c.Request.URL.Path)
			abortError(c, http.StatusUnauthorized, "authentication required", core.CodeAuthRequired)
			return
		}

		session, err := authService.ValidateSessionToken(c.Request.Context(), token)
		if err != nil {
			auditLog.AuthAttempt(c.Request.Context(), c.ClientIP(), "invalid_session", c.Request.URL.Path)
			cookies.Clear(c)
			abortError(c, http.StatusUnauthorized, "session is invalid or expired", core.CodeAuthInvalidSession)
			return
		}

		setSecurityHeaders(c)
		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// CsrfGate requires a valid x-csrf-token header on mutating requests.
// It must run after AuthGate so the session is in the context.
func CsrfGate(manager *csrf.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		session := sessionFromContext(c)
		if session == nil {
			abortError(c, http.StatusUnauthorized, "authentication required", core.CodeAuthRequired)
			return
		}

		if err := manager.ValidateRequest(c.Request, session.ID); err != nil {
			if errors.Is(err, core.ErrMissingCsrfToken) {
				abortError(c, http.StatusUnauthorized, "csrf token is required", core.CodeAuthMissingFields)
				return
			}
			abortError(c, http.StatusUnauthorized, "csrf token is invalid", core.CodeAuthInvalidToken)
			return
		}

		c.Next()
	}
}

// RateLimit gates request volume per client IP, independent of
// authentication state.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := limiter.CheckLimit(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":   "too many requests",
				"code":      core.CodeRateLimited,
				"remaining": 0,
				"resetAt":   result.ResetAt.Unix(),
			})
			return
		}

		c.Next()
	}
}

// Recovery converts panics into an opaque 500 and records an API_ERROR
// event. Internals never reach the client.
func Recovery(auditLog *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				auditLog.APIError(c.Request.Context(), c.ClientIP(), c.Request.URL.Path, fmt.Errorf("panic: %v", rec))
				abortError(c, http.StatusInternalServerError, "internal error", core.CodeAuthError)
			}
		}()
		c.Next()
	}
}

func setSecurityHeaders(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
	h.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
}

func sessionFromContext(c *gin.Context) *core.Session {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	session, ok := value.(*core.Session)
	if !ok {
		return nil
	}
	return session
}

func abortError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message, "code": code})
}
