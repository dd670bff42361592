package websocket

import (
	"encoding/json"
	stderrors "errors"
	"log"
	"strings"
	"time"

	"campusaid/internal/domain/entity"
	"campusaid/internal/overlay"
	"campusaid/internal/usecase"
	"campusaid/pkg/errors"
)

// Inbound message types
const (
	MessageTypePing              = "ping"
	MessageTypeOpenChat          = "open_chat"
	MessageTypeOpenChatByRequest = "open_chat_by_request"
	MessageTypeCloseChat         = "close_chat"
	MessageTypeToggleMinimize    = "toggle_minimize"
	MessageTypeGoBackToThreads   = "go_back_to_threads"
	MessageTypeSendMessage       = "send_message"
	MessageTypeCompleteRequest   = "complete_request"
	MessageTypeSignOut           = "sign_out"
)

// Outbound message types
const (
	MessageTypePong         = "pong"
	MessageTypeOverlayState = "overlay_state"
	MessageTypeThreads      = "threads"
	MessageTypeMessages     = "messages"
	MessageTypeMessageSent  = "message_sent"
	MessageTypeSendFailed   = "send_failed"
	MessageTypeError        = "error"
)

// WebSocket Message Structure
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	ChatID    string      `json:"chat_id,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

type OpenChatByRequestData struct {
	RequestID string `json:"request_id"`
}

type SendMessageData struct {
	TempID string `json:"temp_id,omitempty"`
	ChatID string `json:"chat_id,omitempty"`
	Body   string `json:"body"`
}

type ThreadsData struct {
	Threads []overlay.Thread `json:"threads"`
	Version uint64           `json:"version"`
}

type MessagesData struct {
	ChatID   string            `json:"chat_id"`
	Messages []*entity.Message `json:"messages"`
}

type MessageSentData struct {
	TempID  string          `json:"temp_id,omitempty"`
	Message *entity.Message `json:"message"`
}

// SendFailedData carries the original body back so the composer can be restored.
type SendFailedData struct {
	TempID  string `json:"temp_id,omitempty"`
	ChatID  string `json:"chat_id"`
	Body    string `json:"body"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandleClientMessage decodes one inbound frame and turns it into an overlay action.
func (s *Session) HandleClientMessage(messageBytes []byte) {
	var wsMessage WSMessage

	if err := json.Unmarshal(messageBytes, &wsMessage); err != nil {
		log.Printf("WebSocket: Failed to unmarshal message from user %s: %v", s.userID, err)
		s.sendError("BAD_REQUEST", "Invalid message format")
		return
	}

	switch wsMessage.Type {
	case MessageTypePing:
		s.emit(newMessage(MessageTypePong, "", map[string]string{"status": "alive"}))

	case MessageTypeOpenChat:
		s.store.OpenChat(wsMessage.ChatID)

	case MessageTypeOpenChatByRequest:
		s.handleOpenChatByRequest(wsMessage.Data)

	case MessageTypeCloseChat:
		s.store.CloseChat()

	case MessageTypeToggleMinimize:
		s.store.ToggleMinimize()

	case MessageTypeGoBackToThreads:
		s.store.GoBackToThreads()

	case MessageTypeSendMessage:
		s.handleSendMessage(wsMessage)

	case MessageTypeCompleteRequest:
		s.handleCompleteRequest(wsMessage.ChatID)

	case MessageTypeSignOut:
		s.signOut()

	default:
		log.Printf("WebSocket: Unknown message type '%s' from user %s", wsMessage.Type, s.userID)
		s.sendError("BAD_REQUEST", "Unknown message type")
	}
}

func (s *Session) handleOpenChatByRequest(data interface{}) {
	var payload OpenChatByRequestData
	if err := decodeData(data, &payload); err != nil || payload.RequestID == "" {
		s.sendError("BAD_REQUEST", "Invalid open chat by request format")
		return
	}

	if !s.store.OpenChatByRequestID(s.ctx, payload.RequestID) {
		s.sendError("NOT_FOUND", "No conversation exists for this request yet")
	}
}

func (s *Session) handleSendMessage(wsMessage WSMessage) {
	var payload SendMessageData
	if err := decodeData(wsMessage.Data, &payload); err != nil {
		s.sendError("BAD_REQUEST", "Invalid send message format")
		return
	}

	chatID := firstNonEmpty(payload.ChatID, wsMessage.ChatID, s.activeChatID())
	if chatID == "" {
		s.emit(newMessage(MessageTypeSendFailed, "", SendFailedData{
			TempID:  payload.TempID,
			Body:    payload.Body,
			Code:    "BAD_REQUEST",
			Message: "No conversation selected",
		}))
		return
	}

	message, err := s.chats.SendMessage(s.ctx, usecase.SendMessageInput{
		ChatID:   chatID,
		Body:     payload.Body,
		SenderID: s.userID,
	})
	if err != nil {
		code, text := describe(err)
		log.Printf("WebSocket: Send from %s to chat %s failed: %v", s.userID, chatID, err)
		s.emit(newMessage(MessageTypeSendFailed, chatID, SendFailedData{
			TempID:  payload.TempID,
			ChatID:  chatID,
			Body:    payload.Body,
			Code:    code,
			Message: text,
		}))
		return
	}

	s.emit(newMessage(MessageTypeMessageSent, chatID, MessageSentData{
		TempID:  payload.TempID,
		Message: message,
	}))
}

func (s *Session) handleCompleteRequest(chatID string) {
	chatID = firstNonEmpty(chatID, s.activeChatID())
	if chatID == "" {
		s.sendError("BAD_REQUEST", "No conversation selected")
		return
	}

	if _, err := s.chats.CompleteRequest(s.ctx, s.userID, chatID); err != nil {
		code, text := describe(err)
		s.sendError(code, text)
	}
}

func (s *Session) sendError(code, message string) {
	s.emit(newMessage(MessageTypeError, "", ErrorData{Code: code, Message: message}))
}

func newMessage(messageType, chatID string, data interface{}) WSMessage {
	return WSMessage{
		Type:      messageType,
		Data:      data,
		ChatID:    chatID,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// decodeData re-decodes a generic JSON payload into a typed struct.
func decodeData(data interface{}, v interface{}) error {
	if data == nil {
		return stderrors.New("missing data")
	}
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(dataBytes, v)
}

func describe(err error) (string, string) {
	code := errors.Code(err)
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return code, appErr.Message
	}
	return code, "Something went wrong"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
