package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/gatekeeper/audit"
	"github.com/layer-3/gatekeeper/core"
	"github.com/layer-3/gatekeeper/csrf"
	"github.com/layer-3/gatekeeper/service"
)

// AuthHandlers contains HTTP handlers for the auth endpoints.
type AuthHandlers struct {
	authService *service.AuthService
	csrfManager *csrf.Manager
	cookies     *CookieManager
	auditLog    *audit.Logger
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(
	authService *service.AuthService,
	csrfManager *csrf.Manager,
	cookies *CookieManager,
	auditLog *audit.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		csrfManager: csrfManager,
		cookies:     cookies,
		auditLog:    auditLog,
	}
}

// Challenge handles GET /auth?address=. It issues a signing challenge
// for the address.
func (h *AuthHandlers) Challenge(c *gin.Context) {
	address := c.Query("address")

	challenge, err := h.authService.IssueChallenge(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, core.ErrMissingAddress) {
			respondError(c, http.StatusBadRequest, "a valid address is required", core.CodeAuthMissingFields)
			return
		}
		h.auditLog.APIError(c.Request.Context(), c.ClientIP(), c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, "internal error", core.CodeAuthError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenge": challenge})
}

// Login handles POST /auth. It verifies the signed challenge and, on
// success, attaches the session cookie. Failures are deliberately
// generic; detail lives only in the audit log.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Address   string `json:"address"`
		Signature string `json:"signature"`
		Message   string `json:"message"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "address, signature and message are required", core.CodeAuthMissingFields)
		return
	}

	token, err := h.authService.Verify(c.Request.Context(), req.Address, req.Signature, req.Message, c.ClientIP())
	if err != nil {
		if errors.Is(err, core.ErrMissingFields) {
			respondError(c, http.StatusBadRequest, "address, signature and message are required", core.CodeAuthMissingFields)
			return
		}
		respondError(c, http.StatusUnauthorized, "verification failed", core.CodeAuthFailed)
		return
	}

	h.cookies.Attach(c, token, int(h.authService.SessionTTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SessionStatus handles GET /auth/session. It never returns an error to
// the client; any internal problem reads as unauthenticated.
func (h *AuthHandlers) SessionStatus(c *gin.Context) {
	authenticated := false

	if token := h.cookies.Read(c.Request); token != "" {
		if _, err := h.authService.ValidateSessionToken(c.Request.Context(), token); err == nil {
			authenticated = true
		}
	}

	c.JSON(http.StatusOK, gin.H{"isAuthenticated": authenticated})
}

// Logout handles POST /auth/logout. Logging out twice yields a 401 the
// second time: the first call revoked the session.
func (h *AuthHandlers) Logout(c *gin.Context) {
	token := h.cookies.Read(c.Request)
	if token == "" {
		respondError(c, http.StatusUnauthorized, "no active session", core.CodeAuthRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		h.cookies.Clear(c)
		respondError(c, http.StatusUnauthorized, "no active session", core.CodeAuthInvalidSession)
		return
	}

	h.cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CsrfToken handles GET /auth/csrf. The endpoint sits under the public
// /auth prefix, so it validates the session itself before minting a
// token bound to it.
func (h *AuthHandlers) CsrfToken(c *gin.Context) {
	token := h.cookies.Read(c.Request)
	if token == "" {
		respondError(c, http.StatusUnauthorized, "authentication required", core.CodeAuthRequired)
		return
	}

	session, err := h.authService.ValidateSessionToken(c.Request.Context(), token)
	if err != nil {
		h.cookies.Clear(c)
		respondError(c, http.StatusUnauthorized, "session is invalid or expired", core.CodeAuthInvalidSession)
		return
	}

	csrfToken, err := h.csrfManager.Generate(session.ID)
	if err != nil {
		h.auditLog.APIError(c.Request.Context(), c.ClientIP(), c.Request.URL.Path, err)
		respondError(c, http.StatusInternalServerError, "internal error", core.CodeAuthError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"csrfToken": csrfToken})
}

// Me handles GET /api/me, a gated read returning the session identity.
func (h *AuthHandlers) Me(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		respondError(c, http.StatusUnauthorized, "authentication required", core.CodeAuthRequired)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": session.Address})
}

// Favorites handles POST /api/favorites, a representative mutating
// endpoint: it requires both a session and a CSRF token. Persistence of
// the favorite itself belongs to the dashboard backend.
func (h *AuthHandlers) Favorites(c *gin.Context) {
	var req struct {
		Item string `json:"item" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "item is required", core.CodeAuthMissingFields)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Healthz reports process liveness.
func (h *AuthHandlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, gin.H{"message": message, "code": code})
}
