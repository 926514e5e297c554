package http

import (
	"github.com/gin-gonic/gin"

	"github.com/layer-3/gatekeeper/audit"
	"github.com/layer-3/gatekeeper/csrf"
	"github.com/layer-3/gatekeeper/ratelimit"
	"github.com/layer-3/gatekeeper/service"
)

// SetupRouter wires the middleware chain and routes. Order matters:
// recovery first, then rate limiting (anonymous abuse protection for
// challenge issuance included), then the auth gate.
func SetupRouter(
	authService *service.AuthService,
	csrfManager *csrf.Manager,
	limiter *ratelimit.Limiter,
	cookies *CookieManager,
	auditLog *audit.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(Recovery(auditLog))
	router.Use(RateLimit(limiter))
	router.Use(AuthGate(authService, cookies, auditLog))

	handlers := NewAuthHandlers(authService, csrfManager, cookies, auditLog)

	router.GET("/healthz", handlers.Healthz)

	auth := router.Group("/auth")
	{
		auth.GET("", handlers.Challenge)
		auth.POST("", handlers.Login)
		auth.GET("/session", handlers.SessionStatus)
		auth.POST("/logout", handlers.Logout)
		auth.GET("/csrf", handlers.CsrfToken)
	}

	api := router.Group("/api")
	api.Use(CsrfGate(csrfManager))
	{
		api.GET("/me", handlers.Me)
		api.POST("/favorites", handlers.Favorites)
	}

	return router
}
