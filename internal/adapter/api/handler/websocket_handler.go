package handler

import (
	"net/http"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"campusaid/internal/adapter/api/middleware"
	ws "campusaid/internal/infrastructure/websocket"
	"campusaid/pkg/errors"
	"campusaid/pkg/response"
)

type WebSocketHandler struct {
	wsManager *ws.Manager
	verifier  middleware.TokenVerifier
	chats     ws.ChatService
	upgrader  gorillaws.Upgrader
}

// NewWebSocketHandler builds the overlay socket endpoint. With allowAnyOrigin false only
// same-host origins may connect.
func NewWebSocketHandler(wsManager *ws.Manager, verifier middleware.TokenVerifier, chats ws.ChatService, allowAnyOrigin bool) *WebSocketHandler {
	h := &WebSocketHandler{
		wsManager: wsManager,
		verifier:  verifier,
		chats:     chats,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if allowAnyOrigin {
		h.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return h
}

// HandleWebSocket serves GET /v1/ws?token=<firebase id token>. Browsers cannot set headers on a
// websocket handshake, so the token travels as a query parameter; a Bearer header is accepted too.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	userID, err := h.verifier.VerifyToken(c.Request().Context(), token)
	if err != nil || userID == "" {
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		c.Logger().Errorf("websocket upgrade failed for %s: %v", userID, err)
		return nil
	}

	h.wsManager.Connect(conn, userID, h.chats)
	return nil
}
