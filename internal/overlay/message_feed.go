package overlay

import (
	"context"
	"sync"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
	"campusaid/pkg/logger"
)

type MessageSource interface {
	SubscribeMessages(ctx context.Context, chatID string, listener repository.MessageListener) repository.Unsubscribe
}

// MessageFeed mirrors the message list of the overlay's active conversation. It never reorders
// or appends on its own: the list only changes when the subscription delivers.
type MessageFeed struct {
	source   MessageSource
	onChange func(chatID string, messages []*entity.Message)

	// OnError, when set, is told about failed deliveries for the followed chat. The last good
	// list is kept either way. Set it before the first Follow.
	OnError func(chatID string, err error)

	mu          sync.Mutex
	chatID      string
	messages    []*entity.Message
	generation  uint64
	unsubscribe repository.Unsubscribe
}

func NewMessageFeed(source MessageSource, onChange func(chatID string, messages []*entity.Message)) *MessageFeed {
	return &MessageFeed{
		source:   source,
		onChange: onChange,
	}
}

// Follow switches the feed to chatID. Following the current chat is a no-op; an empty chatID
// stops following.
func (f *MessageFeed) Follow(ctx context.Context, chatID string) {
	f.mu.Lock()
	if chatID == f.chatID {
		f.mu.Unlock()
		return
	}
	previous := f.unsubscribe
	f.unsubscribe = nil
	f.generation++
	gen := f.generation
	f.chatID = chatID
	f.messages = nil
	f.mu.Unlock()

	if previous != nil {
		previous()
	}
	if chatID == "" {
		return
	}

	unsubscribe := f.source.SubscribeMessages(ctx, chatID, func(messages []*entity.Message, err error) {
		f.receive(gen, messages, err)
	})

	f.mu.Lock()
	if f.generation != gen {
		f.mu.Unlock()
		unsubscribe()
		return
	}
	f.unsubscribe = unsubscribe
	f.mu.Unlock()
}

// Messages returns the followed chat and its last delivered message list.
func (f *MessageFeed) Messages() (string, []*entity.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	messages := make([]*entity.Message, len(f.messages))
	copy(messages, f.messages)
	return f.chatID, messages
}

func (f *MessageFeed) Close() {
	f.Follow(context.Background(), "")
}

func (f *MessageFeed) receive(gen uint64, messages []*entity.Message, err error) {
	f.mu.Lock()
	if gen != f.generation {
		f.mu.Unlock()
		return
	}
	chatID := f.chatID
	if err != nil {
		f.mu.Unlock()
		logger.Warn("Overlay: message subscription failed for chat %s, keeping last snapshot: %v", chatID, err)
		if f.OnError != nil {
			f.OnError(chatID, err)
		}
		return
	}
	f.messages = messages
	snapshot := make([]*entity.Message, len(messages))
	copy(snapshot, messages)
	f.mu.Unlock()

	if f.onChange != nil {
		f.onChange(chatID, snapshot)
	}
}
