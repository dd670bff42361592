package router

import (
	"github.com/labstack/echo/v4"

	"campusaid/internal/adapter/api/handler"
	"campusaid/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, apiLimit echo.MiddlewareFunc) {
	chatHandler := handler.GetChatHandler()

	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate, apiLimit) // All chat endpoints require authentication

	chatGroup.GET("", chatHandler.GetUserChats)                             // GET /v1/chats - Chats as requester or helper
	chatGroup.GET("/by-request/:requestId", chatHandler.GetChatByRequestID) // GET /v1/chats/by-request/:requestId
	chatGroup.GET("/:id", chatHandler.GetChatByID)                          // GET /v1/chats/:id - Get specific chat
	chatGroup.POST("/:id/complete", chatHandler.CompleteRequest)            // POST /v1/chats/:id/complete - Requester only

	// Message management
	chatGroup.POST("/:id/messages", chatHandler.SendMessage)    // POST /v1/chats/:id/messages - Send message
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages) // GET /v1/chats/:id/messages - Get chat messages
}
