package router

import (
	"github.com/labstack/echo/v4"

	"campusaid/internal/adapter/api/handler"
	"campusaid/internal/adapter/api/middleware"
	"campusaid/internal/infrastructure/ratelimit"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter, wsHandler *handler.WebSocketHandler) {
	apiLimit := middleware.RateLimit(limiter, ratelimit.ActionAPI)

	SetupAuthRouter(e, authMiddleware, apiLimit)
	SetupRequestRouter(e, authMiddleware, apiLimit)
	SetupChatRouter(e, authMiddleware, apiLimit)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e)
}
