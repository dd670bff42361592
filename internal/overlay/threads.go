package overlay

import (
	"time"

	"campusaid/internal/domain/entity"
)

// Thread is one row of the overlay's thread list.
type Thread struct {
	ChatID        string     `json:"chat_id"`
	RequestID     string     `json:"request_id"`
	RequestTitle  string     `json:"request_title"`
	OtherName     string     `json:"other_name"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	Unread        bool       `json:"unread"`
}

// VisibleThreads projects the store's chats into the thread list. Finalized conversations are
// hidden here, not in the store, and the incoming order is kept.
func VisibleThreads(chats []*entity.Chat, viewerID string) []Thread {
	threads := make([]Thread, 0, len(chats))
	for _, chat := range chats {
		if chat == nil || !chat.IsActive() {
			continue
		}
		other := chat.OtherParticipant(viewerID)
		threads = append(threads, Thread{
			ChatID:        chat.ID,
			RequestID:     chat.RequestID,
			RequestTitle:  chat.RequestTitle,
			OtherName:     chat.ParticipantNames[other],
			LastMessage:   chat.LastMessage,
			LastMessageAt: chat.LastMessageAt,
			Unread:        chat.LastMessageSenderID != "" && chat.LastMessageSenderID != viewerID,
		})
	}
	return threads
}
