package websocket

import (
	"context"
	"sync"
	"sync/atomic"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
	"campusaid/internal/overlay"
	"campusaid/internal/usecase"
)

// ChatService is the chat use case as seen by a session. *usecase.ChatUseCase satisfies it.
type ChatService interface {
	SubscribeConversationsForUser(ctx context.Context, userID string, listener repository.ChatListener) repository.Unsubscribe
	GetChatByRequestID(ctx context.Context, userID, requestID string) (*entity.Chat, error)
	SubscribeMessages(ctx context.Context, userID, chatID string, listener repository.MessageListener) repository.Unsubscribe
	SendMessage(ctx context.Context, input usecase.SendMessageInput) (*entity.Message, error)
	CompleteRequest(ctx context.Context, userID, chatID string) (*entity.Chat, error)
}

// Session is the presentation side of one user's overlay: it forwards client intents to an
// overlay.Store and renders every store snapshot as outbound frames.
type Session struct {
	userID string
	chats  ChatService
	emit   func(WSMessage)

	store *overlay.Store
	feed  *overlay.MessageFeed

	ctx    context.Context
	cancel context.CancelFunc

	// OnSignOut runs after a sign_out frame has reset the store.
	OnSignOut func()

	closed    atomic.Bool
	unobserve func()

	mu          sync.Mutex
	lastVersion uint64
}

func NewSession(ctx context.Context, userID string, chats ChatService, emit func(WSMessage)) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		userID: userID,
		chats:  chats,
		emit:   emit,
		ctx:    ctx,
		cancel: cancel,
	}
	s.store = overlay.NewStore(userChats{chats: chats, userID: userID})
	s.feed = overlay.NewMessageFeed(userMessages{chats: chats, userID: userID}, s.renderMessages)
	s.feed.OnError = s.renderFeedError
	s.unobserve = s.store.Subscribe(s.render)
	return s
}

func (s *Session) UserID() string {
	return s.userID
}

func (s *Session) Store() *overlay.Store {
	return s.store
}

// Start subscribes the store to the user's conversations. It does nothing once the session is closed.
func (s *Session) Start() {
	if s.closed.Load() {
		return
	}
	s.store.Start(s.ctx, s.userID)
}

// Close stops all subscriptions. No frames are emitted afterwards.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.unobserve()
	s.store.Stop()
	s.feed.Close()
	s.cancel()
}

func (s *Session) signOut() {
	s.store.Stop()
	if s.OnSignOut != nil {
		s.OnSignOut()
	}
}

func (s *Session) activeChatID() string {
	state := s.store.Snapshot()
	if state.ActiveView != overlay.ViewConversation {
		return ""
	}
	return state.ActiveChatID
}

func (s *Session) render(state overlay.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() || state.Version <= s.lastVersion {
		return
	}
	s.lastVersion = state.Version

	s.emit(newMessage(MessageTypeOverlayState, state.ActiveChatID, state))
	s.emit(newMessage(MessageTypeThreads, "", ThreadsData{
		Threads: overlay.VisibleThreads(state.Chats, s.userID),
		Version: state.Version,
	}))

	follow := ""
	if state.ActiveView == overlay.ViewConversation {
		follow = state.ActiveChatID
	}
	s.feed.Follow(s.ctx, follow)
}

func (s *Session) renderMessages(chatID string, messages []*entity.Message) {
	if s.closed.Load() {
		return
	}
	s.emit(newMessage(MessageTypeMessages, chatID, MessagesData{ChatID: chatID, Messages: messages}))
}

// renderFeedError runs from inside Follow while render holds s.mu, so it must not lock.
func (s *Session) renderFeedError(chatID string, err error) {
	if s.closed.Load() {
		return
	}
	code, message := describe(err)
	s.emit(newMessage(MessageTypeError, chatID, ErrorData{Code: code, Message: message}))
}

// userChats scopes the store's request lookup to conversations the session user takes part in.
type userChats struct {
	chats  ChatService
	userID string
}

func (c userChats) SubscribeConversationsForUser(ctx context.Context, userID string, listener repository.ChatListener) repository.Unsubscribe {
	return c.chats.SubscribeConversationsForUser(ctx, userID, listener)
}

func (c userChats) FindChatByRequestID(ctx context.Context, requestID string) (*entity.Chat, error) {
	return c.chats.GetChatByRequestID(ctx, c.userID, requestID)
}

type userMessages struct {
	chats  ChatService
	userID string
}

func (m userMessages) SubscribeMessages(ctx context.Context, chatID string, listener repository.MessageListener) repository.Unsubscribe {
	return m.chats.SubscribeMessages(ctx, m.userID, chatID, listener)
}
