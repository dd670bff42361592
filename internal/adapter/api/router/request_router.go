package router

import (
	"github.com/labstack/echo/v4"

	"campusaid/internal/adapter/api/handler"
	"campusaid/internal/adapter/api/middleware"
)

// SetupRequestRouter sets up help request and question routes
func SetupRequestRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, apiLimit echo.MiddlewareFunc) {
	requestHandler := handler.GetHelpRequestHandler()

	requestGroup := e.Group("/v1/requests")
	requestGroup.Use(authMiddleware.Authenticate, apiLimit)

	requestGroup.POST("", requestHandler.CreateRequest)          // POST /v1/requests - Post a request or question
	requestGroup.GET("", requestHandler.ListOpen)                // GET /v1/requests?kind= - Open requests, newest first
	requestGroup.GET("/mine", requestHandler.ListMine)           // GET /v1/requests/mine - Requests I posted
	requestGroup.GET("/:id", requestHandler.GetRequest)          // GET /v1/requests/:id
	requestGroup.POST("/:id/offer", requestHandler.OfferHelp)    // POST /v1/requests/:id/offer - Start a conversation as helper
	requestGroup.POST("/:id/photos", requestHandler.UploadPhoto) // POST /v1/requests/:id/photos - multipart "photo"
}
