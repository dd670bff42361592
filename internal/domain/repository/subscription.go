package repository

import "campusaid/internal/domain/entity"

// Unsubscribe stops a live query. It does not wait for a callback that is already running,
// so listeners must tolerate one late delivery after it returns.
type Unsubscribe func()

// ChatListener receives every snapshot of a live chat query. On failure chats is nil and err is set.
type ChatListener func(chats []*entity.Chat, err error)

// MessageListener receives the full, ascending message list of a chat on every change.
type MessageListener func(messages []*entity.Message, err error)

// ParticipantField names the chat field a participant query filters on.
type ParticipantField string

const (
	AsRequester ParticipantField = "requesterId"
	AsHelper    ParticipantField = "helperId"
)
