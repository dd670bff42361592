package router

import (
	"github.com/labstack/echo/v4"

	"campusaid/internal/adapter/api/handler"
	"campusaid/internal/adapter/api/middleware"
)

// SetupAuthRouter initializes auth routes
func SetupAuthRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, apiLimit echo.MiddlewareFunc) {
	authHandler := handler.GetAuthHandler()

	// Public routes
	e.POST("/v1/auth/register", authHandler.Register, apiLimit)

	// Protected routes
	protected := e.Group("/v1/auth")
	protected.Use(authMiddleware.Authenticate, apiLimit)

	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.GetProfile)
	protected.PATCH("/me", authHandler.UpdateProfile)
}
