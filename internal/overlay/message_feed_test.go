package overlay

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
)

type fakeMessageSource struct {
	mu           sync.Mutex
	chatIDs      []string
	listeners    []repository.MessageListener
	unsubscribed []bool
}

func (f *fakeMessageSource) SubscribeMessages(ctx context.Context, chatID string, listener repository.MessageListener) repository.Unsubscribe {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := len(f.listeners)
	f.chatIDs = append(f.chatIDs, chatID)
	f.listeners = append(f.listeners, listener)
	f.unsubscribed = append(f.unsubscribed, false)

	return func() {
		f.mu.Lock()
		f.unsubscribed[idx] = true
		f.mu.Unlock()
	}
}

func (f *fakeMessageSource) emit(idx int, messages []*entity.Message, err error) {
	f.mu.Lock()
	listener := f.listeners[idx]
	f.mu.Unlock()
	listener(messages, err)
}

func message(id, chatID, body string, at time.Time) *entity.Message {
	return &entity.Message{ID: id, ConversationID: chatID, SenderID: "bob", Body: body, CreatedAt: at}
}

func TestMessageFeedKeepsDeliveredOrder(t *testing.T) {
	source := &fakeMessageSource{}
	var changes int
	feed := NewMessageFeed(source, func(string, []*entity.Message) { changes++ })

	feed.Follow(context.Background(), "c1")
	require.Equal(t, []string{"c1"}, source.chatIDs)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	source.emit(0, []*entity.Message{
		message("m1", "c1", "hi", base),
		message("m2", "c1", "can you help?", base.Add(time.Minute)),
	}, nil)

	chatID, messages := feed.Messages()
	assert.Equal(t, "c1", chatID)
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
	assert.Equal(t, 1, changes)
}

func TestMessageFeedSwitchIgnoresPreviousConversation(t *testing.T) {
	source := &fakeMessageSource{}
	var delivered []string
	feed := NewMessageFeed(source, func(chatID string, _ []*entity.Message) { delivered = append(delivered, chatID) })

	feed.Follow(context.Background(), "c1")
	feed.Follow(context.Background(), "c2")

	assert.True(t, source.unsubscribed[0])
	source.emit(0, []*entity.Message{message("old", "c1", "late", time.Now())}, nil)

	chatID, messages := feed.Messages()
	assert.Equal(t, "c2", chatID)
	assert.Empty(t, messages)
	assert.Empty(t, delivered)

	source.emit(1, []*entity.Message{message("new", "c2", "hello", time.Now())}, nil)
	assert.Equal(t, []string{"c2"}, delivered)
}

func TestMessageFeedErrorKeepsLastGood(t *testing.T) {
	source := &fakeMessageSource{}
	feed := NewMessageFeed(source, nil)
	feed.Follow(context.Background(), "c1")
	source.emit(0, []*entity.Message{message("m1", "c1", "hi", time.Now())}, nil)

	source.emit(0, nil, stderrors.New("network"))

	_, messages := feed.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "m1", messages[0].ID)
}

func TestMessageFeedReportsErrorsForFollowedChat(t *testing.T) {
	source := &fakeMessageSource{}
	feed := NewMessageFeed(source, nil)
	var failed []string
	feed.OnError = func(chatID string, err error) { failed = append(failed, chatID) }

	feed.Follow(context.Background(), "c1")
	feed.Follow(context.Background(), "c2")

	source.emit(0, nil, stderrors.New("stale"))
	assert.Empty(t, failed)

	source.emit(1, nil, stderrors.New("forbidden"))
	assert.Equal(t, []string{"c2"}, failed)
}

func TestMessageFeedFollowSameChatIsNoop(t *testing.T) {
	source := &fakeMessageSource{}
	feed := NewMessageFeed(source, nil)

	feed.Follow(context.Background(), "c1")
	feed.Follow(context.Background(), "c1")

	assert.Len(t, source.listeners, 1)
}

func TestMessageFeedClose(t *testing.T) {
	source := &fakeMessageSource{}
	feed := NewMessageFeed(source, nil)
	feed.Follow(context.Background(), "c1")

	feed.Close()

	assert.True(t, source.unsubscribed[0])
	chatID, messages := feed.Messages()
	assert.Empty(t, chatID)
	assert.Empty(t, messages)

	source.emit(0, []*entity.Message{message("late", "c1", "x", time.Now())}, nil)
	_, messages = feed.Messages()
	assert.Empty(t, messages)
}
