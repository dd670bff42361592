package overlay

import (
	"context"
	"sync"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
	"campusaid/pkg/errors"
	"campusaid/pkg/logger"
)

// ChatSource is the data access the store needs.
type ChatSource interface {
	SubscribeConversationsForUser(ctx context.Context, userID string, listener repository.ChatListener) repository.Unsubscribe
	FindChatByRequestID(ctx context.Context, requestID string) (*entity.Chat, error)
}

// Observer receives a snapshot after every change. Observers run outside the store's lock and may
// be called concurrently; compare State.Version to discard stale deliveries.
type Observer func(State)

// Store owns the overlay state of one authenticated session. Its action methods are the only way
// to change that state and none of them fail.
type Store struct {
	source ChatSource

	mu           sync.Mutex
	state        State
	userID       string
	generation   uint64
	unsubscribe  repository.Unsubscribe
	observers    map[uint64]Observer
	nextObserver uint64
}

func NewStore(source ChatSource) *Store {
	return &Store{
		source:    source,
		state:     initialState(),
		observers: make(map[uint64]Observer),
	}
}

// Start binds the store to userID and subscribes to that user's conversations. Calling Start again
// replaces the previous session. An empty userID is ignored: without a user there is no overlay.
func (s *Store) Start(ctx context.Context, userID string) {
	if userID == "" {
		return
	}

	s.mu.Lock()
	previous := s.unsubscribe
	s.unsubscribe = nil
	s.generation++
	gen := s.generation
	s.userID = userID
	s.reset()
	snapshot, observers := s.publishLocked()
	s.mu.Unlock()

	if previous != nil {
		previous()
	}
	s.notify(snapshot, observers)

	unsubscribe := s.source.SubscribeConversationsForUser(ctx, userID, func(chats []*entity.Chat, err error) {
		s.receiveChats(gen, chats, err)
	})

	s.mu.Lock()
	if s.generation != gen {
		// Stopped or restarted while subscribing.
		s.mu.Unlock()
		unsubscribe()
		return
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	logger.Debug("Overlay started for user %s", userID)
}

// Stop cancels the conversation subscription, clears chats and returns to the initial state.
func (s *Store) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.generation++
	userID := s.userID
	s.userID = ""
	s.reset()
	snapshot, observers := s.publishLocked()
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.notify(snapshot, observers)

	if userID != "" {
		logger.Debug("Overlay stopped for user %s", userID)
	}
}

// UserID returns the user the store is bound to, or "" when stopped.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers an observer and returns the function that removes it.
func (s *Store) Subscribe(observer Observer) func() {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = observer
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) OpenChat(chatID string) {
	if chatID == "" {
		return
	}
	s.update(func(st *State) {
		st.ActiveChatID = chatID
		st.ActiveView = ViewConversation
		st.IsMinimized = false
		st.IsOpen = true
	})
}

// OpenChatByRequestID opens the conversation that belongs to a help request. When none exists yet,
// or the lookup fails, the state is left alone. It reports whether a conversation was opened.
func (s *Store) OpenChatByRequestID(ctx context.Context, requestID string) bool {
	if requestID == "" {
		return false
	}

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	chat, err := s.source.FindChatByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			logger.Debug("Overlay: no conversation yet for request %s", requestID)
		} else {
			logger.Warn("Overlay: failed to look up conversation for request %s: %v", requestID, err)
		}
		return false
	}
	if chat == nil || chat.ID == "" {
		return false
	}

	opened := false
	s.updateIf(gen, func(st *State) {
		st.ActiveChatID = chat.ID
		st.ActiveView = ViewConversation
		st.IsMinimized = false
		st.IsOpen = true
		opened = true
	})
	return opened
}

func (s *Store) CloseChat() {
	s.update(func(st *State) {
		st.IsOpen = false
		st.IsMinimized = true
		st.ActiveChatID = ""
		st.ActiveView = ViewThreads
	})
}

func (s *Store) ToggleMinimize() {
	s.update(func(st *State) {
		st.IsMinimized = !st.IsMinimized
		if !st.IsMinimized && !st.IsOpen {
			st.IsOpen = true
		}
	})
}

func (s *Store) GoBackToThreads() {
	s.update(func(st *State) {
		if st.ActiveView != ViewConversation {
			return
		}
		st.ActiveView = ViewThreads
		st.ActiveChatID = ""
	})
}

func (s *Store) receiveChats(gen uint64, chats []*entity.Chat, err error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	if err != nil {
		userID := s.userID
		s.mu.Unlock()
		logger.Warn("Overlay: conversation subscription failed for user %s, keeping last snapshot: %v", userID, err)
		return
	}

	next := make([]*entity.Chat, 0, len(chats))
	for _, chat := range chats {
		if chat != nil {
			next = append(next, chat)
		}
	}
	s.state.Chats = next
	s.state.UnreadCount = UnreadCount(next, s.userID)
	snapshot, observers := s.publishLocked()
	s.mu.Unlock()

	s.notify(snapshot, observers)
}

func (s *Store) update(mutate func(*State)) {
	s.mu.Lock()
	s.apply(mutate)
}

// updateIf applies mutate only while the store is still in generation gen.
func (s *Store) updateIf(gen uint64, mutate func(*State)) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.apply(mutate)
}

// apply must be called with s.mu held; it releases it.
func (s *Store) apply(mutate func(*State)) {
	before := s.state
	mutate(&s.state)
	if sameView(before, s.state) {
		s.mu.Unlock()
		return
	}
	snapshot, observers := s.publishLocked()
	s.mu.Unlock()

	s.notify(snapshot, observers)
}

func (s *Store) reset() {
	version := s.state.Version
	s.state = initialState()
	s.state.Version = version
}

func (s *Store) publishLocked() (State, []Observer) {
	s.state.Version++
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	return s.state.clone(), observers
}

func (s *Store) notify(snapshot State, observers []Observer) {
	for _, o := range observers {
		o(snapshot)
	}
}
