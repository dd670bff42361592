// Package overlay holds the session-scoped state of the global chat overlay: whether it is
// open or minimized, which view it shows, which conversation is active, and the live list of
// the signed-in user's conversations with its derived unread count.
package overlay

import (
	"campusaid/internal/domain/entity"
)

type View string

const (
	ViewThreads      View = "threads"
	ViewConversation View = "conversation"
)

// State is a read-only snapshot of the overlay. An empty ActiveChatID means no active conversation.
type State struct {
	IsOpen       bool           `json:"is_open"`
	IsMinimized  bool           `json:"is_minimized"`
	ActiveView   View           `json:"active_view"`
	ActiveChatID string         `json:"active_chat_id"`
	Chats        []*entity.Chat `json:"chats"`
	UnreadCount  int            `json:"unread_count"`

	// Version increases on every change. Consumers drop snapshots older than the last one seen.
	Version uint64 `json:"version"`
}

func initialState() State {
	return State{
		IsOpen:      false,
		IsMinimized: true,
		ActiveView:  ViewThreads,
		Chats:       []*entity.Chat{},
	}
}

// sameView reports whether two states render identically apart from the chat list.
func sameView(a, b State) bool {
	return a.IsOpen == b.IsOpen &&
		a.IsMinimized == b.IsMinimized &&
		a.ActiveView == b.ActiveView &&
		a.ActiveChatID == b.ActiveChatID
}

func (s State) clone() State {
	chats := make([]*entity.Chat, len(s.Chats))
	copy(chats, s.Chats)
	s.Chats = chats
	return s
}
