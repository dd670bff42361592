package router

import (
	"github.com/labstack/echo/v4"

	"campusaid/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up the overlay socket. Auth happens inside the handler because the
// token arrives as a query parameter.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/v1/ws", wsHandler.HandleWebSocket)
}
