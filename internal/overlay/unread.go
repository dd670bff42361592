package overlay

import "campusaid/internal/domain/entity"

// UnreadCount counts conversations, not messages: an active conversation is unread for viewerID
// when its latest message came from the other participant.
func UnreadCount(chats []*entity.Chat, viewerID string) int {
	count := 0
	for _, chat := range chats {
		if chat == nil || !chat.IsActive() {
			continue
		}
		if chat.LastMessageSenderID != "" && chat.LastMessageSenderID != viewerID {
			count++
		}
	}
	return count
}
