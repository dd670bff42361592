package overlay

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
	"campusaid/pkg/errors"
	"campusaid/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeChatSource struct {
	mu           sync.Mutex
	users        []string
	listeners    []repository.ChatListener
	unsubscribed []bool

	byRequest map[string]*entity.Chat
	lookupErr error
	// lookupHook runs inside FindChatByRequestID before it returns.
	lookupHook func()
}

func newFakeChatSource() *fakeChatSource {
	return &fakeChatSource{byRequest: make(map[string]*entity.Chat)}
}

func (f *fakeChatSource) SubscribeConversationsForUser(ctx context.Context, userID string, listener repository.ChatListener) repository.Unsubscribe {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := len(f.listeners)
	f.users = append(f.users, userID)
	f.listeners = append(f.listeners, listener)
	f.unsubscribed = append(f.unsubscribed, false)

	return func() {
		f.mu.Lock()
		f.unsubscribed[idx] = true
		f.mu.Unlock()
	}
}

func (f *fakeChatSource) FindChatByRequestID(ctx context.Context, requestID string) (*entity.Chat, error) {
	if f.lookupHook != nil {
		f.lookupHook()
	}
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	chat, ok := f.byRequest[requestID]
	if !ok {
		return nil, errors.NotFound("Chat for request", nil)
	}
	return chat, nil
}

// emit delivers to subscription idx even when it was cancelled, like a late Firestore callback.
func (f *fakeChatSource) emit(idx int, chats []*entity.Chat, err error) {
	f.mu.Lock()
	listener := f.listeners[idx]
	f.mu.Unlock()
	listener(chats, err)
}

func (f *fakeChatSource) isUnsubscribed(idx int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed[idx]
}

func chat(id, status, lastSender string) *entity.Chat {
	return &entity.Chat{
		ID:                  id,
		RequestID:           "req-" + id,
		RequestTitle:        "Help with " + id,
		ParticipantIDs:      []string{"alice", "bob"},
		ParticipantNames:    map[string]string{"alice": "Alice", "bob": "Bob"},
		RequesterID:         "alice",
		HelperID:            "bob",
		Status:              status,
		LastMessageSenderID: lastSender,
	}
}

func closedBaseline() State {
	return State{IsOpen: false, IsMinimized: true, ActiveView: ViewThreads, ActiveChatID: ""}
}

func viewOf(s State) State {
	return State{IsOpen: s.IsOpen, IsMinimized: s.IsMinimized, ActiveView: s.ActiveView, ActiveChatID: s.ActiveChatID}
}

func TestInitialState(t *testing.T) {
	store := NewStore(newFakeChatSource())

	st := store.Snapshot()
	assert.Equal(t, closedBaseline(), viewOf(st))
	assert.Empty(t, st.Chats)
	assert.Equal(t, 0, st.UnreadCount)
}

func TestOpenChatLastWriteWins(t *testing.T) {
	store := NewStore(newFakeChatSource())

	store.OpenChat("a")
	store.OpenChat("b")

	st := store.Snapshot()
	assert.Equal(t, "b", st.ActiveChatID)
	assert.Equal(t, ViewConversation, st.ActiveView)
	assert.True(t, st.IsOpen)
	assert.False(t, st.IsMinimized)
}

func TestOpenChatEmptyIDIsNoop(t *testing.T) {
	store := NewStore(newFakeChatSource())
	before := store.Snapshot()

	store.OpenChat("")

	assert.Equal(t, before, store.Snapshot())
}

func TestOpenChatIsIdempotent(t *testing.T) {
	store := NewStore(newFakeChatSource())

	store.OpenChat("c1")
	first := store.Snapshot()
	store.OpenChat("c1")

	assert.Equal(t, first, store.Snapshot())
}

func TestToggleMinimizeIsInvolution(t *testing.T) {
	setups := map[string]func(*Store){
		"initial":      func(*Store) {},
		"conversation": func(s *Store) { s.OpenChat("c1") },
		"threads":      func(s *Store) { s.OpenChat("c1"); s.GoBackToThreads() },
		"closed":       func(s *Store) { s.OpenChat("c1"); s.CloseChat() },
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			store := NewStore(newFakeChatSource())
			setup(store)
			before := store.Snapshot().IsMinimized

			store.ToggleMinimize()
			assert.NotEqual(t, before, store.Snapshot().IsMinimized)
			store.ToggleMinimize()
			assert.Equal(t, before, store.Snapshot().IsMinimized)
		})
	}
}

func TestToggleMinimizeFromClosedOpensWindow(t *testing.T) {
	store := NewStore(newFakeChatSource())

	store.ToggleMinimize()

	st := store.Snapshot()
	assert.True(t, st.IsOpen)
	assert.False(t, st.IsMinimized)
	assert.Equal(t, ViewThreads, st.ActiveView)

	store.ToggleMinimize()
	st = store.Snapshot()
	assert.True(t, st.IsMinimized)
}

func TestMinimizeThenExpandKeepsActiveChat(t *testing.T) {
	store := NewStore(newFakeChatSource())
	store.OpenChat("c1")

	store.ToggleMinimize()
	st := store.Snapshot()
	assert.True(t, st.IsMinimized)
	assert.True(t, st.IsOpen)
	assert.Equal(t, ViewConversation, st.ActiveView)
	assert.Equal(t, "c1", st.ActiveChatID)

	store.ToggleMinimize()
	st = store.Snapshot()
	assert.False(t, st.IsMinimized)
	assert.Equal(t, ViewConversation, st.ActiveView)
	assert.Equal(t, "c1", st.ActiveChatID)
}

func TestCloseChatResetsFromAnyState(t *testing.T) {
	setups := map[string]func(*Store){
		"initial":        func(*Store) {},
		"conversation":   func(s *Store) { s.OpenChat("c1") },
		"expandedThread": func(s *Store) { s.ToggleMinimize() },
		"minimizedChat":  func(s *Store) { s.OpenChat("c1"); s.ToggleMinimize() },
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			store := NewStore(newFakeChatSource())
			setup(store)

			store.CloseChat()

			assert.Equal(t, closedBaseline(), viewOf(store.Snapshot()))
		})
	}
}

func TestGoBackToThreads(t *testing.T) {
	store := NewStore(newFakeChatSource())
	store.ToggleMinimize()
	before := store.Snapshot()

	store.GoBackToThreads()
	assert.Equal(t, before, store.Snapshot(), "already on threads")

	store.OpenChat("c1")
	store.GoBackToThreads()

	st := store.Snapshot()
	assert.Equal(t, ViewThreads, st.ActiveView)
	assert.Empty(t, st.ActiveChatID)
	assert.True(t, st.IsOpen)
}

func TestOpenChatNotInChats(t *testing.T) {
	source := newFakeChatSource()
	store := NewStore(source)
	store.Start(context.Background(), "alice")
	source.emit(0, []*entity.Chat{}, nil)

	store.OpenChat("c1")

	st := store.Snapshot()
	assert.Equal(t, "c1", st.ActiveChatID)
	assert.Equal(t, ViewConversation, st.ActiveView)
	assert.Empty(t, st.Chats)
}

func TestStoreKeepsFinalizedChatsAndThreadListHidesThem(t *testing.T) {
	source := newFakeChatSource()
	store := NewStore(source)
	store.Start(context.Background(), "alice")

	source.emit(0, []*entity.Chat{
		chat("c1", entity.ChatStatusActive, ""),
		chat("c2", entity.ChatStatusFinalized, ""),
	}, nil)

	st := store.Snapshot()
	require.Len(t, st.Chats, 2)
	assert.Equal(t, "c2", st.Chats[1].ID)

	threads := VisibleThreads(st.Chats, "alice")
	require.Len(t, threads, 1)
	assert.Equal(t, "c1", threads[0].ChatID)
	assert.Equal(t, "Bob", threads[0].OtherName)
}

func TestDoubleToggleThenCloseEqualsClose(t *testing.T) {
	for _, setup := range []func(*Store){
		func(*Store) {},
		func(s *Store) { s.OpenChat("c9") },
	} {
		a := NewStore(newFakeChatSource())
		b := NewStore(newFakeChatSource())
		setup(a)
		setup(b)

		a.ToggleMinimize()
		a.ToggleMinimize()
		a.CloseChat()
		b.CloseChat()

		assert.Equal(t, viewOf(b.Snapshot()), viewOf(a.Snapshot()))
	}
}

func TestReopenAfterGoingBackLeavesNoResidue(t *testing.T) {
	store := NewStore(newFakeChatSource())

	store.OpenChat("c1")
	first := viewOf(store.Snapshot())
	store.GoBackToThreads()
	store.OpenChat("c1")

	assert.Equal(t, first, viewOf(store.Snapshot()))
}

func TestUnreadCountFollowsChats(t *testing.T) {
	source := newFakeChatSource()
	store := NewStore(source)
	store.Start(context.Background(), "alice")

	chats := []*entity.Chat{
		chat("c1", entity.ChatStatusActive, "bob"),
		chat("c2", entity.ChatStatusActive, "alice"),
		chat("c3", entity.ChatStatusActive, ""),
		chat("c4", entity.ChatStatusFinalized, "bob"),
		chat("c5", entity.ChatStatusActive, "bob"),
	}
	source.emit(0, chats, nil)
	first := store.Snapshot().UnreadCount

	source.emit(0, chats, nil)
	assert.Equal(t, first, store.Snapshot().UnreadCount)
	assert.Equal(t, 2, first)
	assert.Equal(t, first, UnreadCount(chats, "alice"))

	source.emit(0, chats[:1], nil)
	assert.Equal(t, 1, store.Snapshot().UnreadCount)
}

func TestSubscriptionErrorKeepsLastSnapshot(t *testing.T) {
	source := newFakeChatSource()
	store := NewStore(source)
	store.Start(context.Background(), "alice")

	source.emit(0, []*entity.Chat{chat("c1", entity.ChatStatusActive, "bob")}, nil)
	before := store.Snapshot()

	source.emit(0, nil, stderrors.New("permission denied"))

	assert.Equal(t, before, store.Snapshot())
}

func TestStopCancelsSubscriptionAndIgnoresLateCallbacks(t *testing.T) {
	source := newFakeChatSource()
	store := NewStore(source)
	store.Start(context.Background(), "alice")
	source.emit(0, []*entity.Chat{chat("c1", entity.ChatStatusActive, "bob")}, nil)
	store.OpenChat("c1")

	store.Stop()

	assert.True(t, source.isUnsubscribed(0))
	st := store.Snapshot()
	assert.Equal(t, closedBaseline(), viewOf(st))
	assert.Empty(t, st.Chats)
	assert.Equal(t, 0, st.UnreadCount)
	assert.Empty(t, store.UserID())

	source.emit(0, []*entity.Chat{chat("late", entity.ChatStatusActive, "bob")}, nil)
	assert.Empty(t, store.Snapshot().Chats)
}

func TestRestartIgnoresPreviousSubscription(t *testing.T) {
	source := newFakeChatSource()
	store := NewStore(source)
	store.Start(context.Background(), "alice")
	store.Start(context.Background(), "bob")

	require.Len(t, source.listeners, 2)
	assert.True(t, source.isUnsubscribed(0))
	assert.False(t, source.isUnsubscribed(1))
	assert.Equal(t, "bob", store.UserID())

	source.emit(0, []*entity.Chat{chat("stale", entity.ChatStatusActive, "alice")}, nil)
	assert.Empty(t, store.Snapshot().Chats)

	source.emit(1, []*entity.Chat{chat("fresh", entity.ChatStatusActive, "alice")}, nil)
	st := store.Snapshot()
	require.Len(t, st.Chats, 1)
	assert.Equal(t, "fresh", st.Chats[0].ID)
	assert.Equal(t, 1, st.UnreadCount)
}

func TestStartWithoutUserDoesNothing(t *testing.T) {
	source := newFakeChatSource()
	store := NewStore(source)

	store.Start(context.Background(), "")

	assert.Empty(t, source.listeners)
	assert.Empty(t, store.UserID())
}

func TestOpenChatByRequestID(t *testing.T) {
	source := newFakeChatSource()
	source.byRequest["req-1"] = chat("c1", entity.ChatStatusActive, "")
	store := NewStore(source)

	assert.False(t, store.OpenChatByRequestID(context.Background(), "req-missing"))
	assert.Equal(t, closedBaseline(), viewOf(store.Snapshot()))

	assert.False(t, store.OpenChatByRequestID(context.Background(), ""))

	assert.True(t, store.OpenChatByRequestID(context.Background(), "req-1"))
	st := store.Snapshot()
	assert.Equal(t, "c1", st.ActiveChatID)
	assert.Equal(t, ViewConversation, st.ActiveView)
}

func TestOpenChatByRequestIDLookupErrorLeavesState(t *testing.T) {
	source := newFakeChatSource()
	source.lookupErr = stderrors.New("unavailable")
	store := NewStore(source)
	store.ToggleMinimize()
	before := store.Snapshot()

	assert.False(t, store.OpenChatByRequestID(context.Background(), "req-1"))
	assert.Equal(t, before, store.Snapshot())
}

func TestOpenChatByRequestIDDroppedAfterSignOut(t *testing.T) {
	source := newFakeChatSource()
	source.byRequest["req-1"] = chat("c1", entity.ChatStatusActive, "")
	store := NewStore(source)
	store.Start(context.Background(), "alice")
	source.lookupHook = store.Stop

	assert.False(t, store.OpenChatByRequestID(context.Background(), "req-1"))
	assert.Equal(t, closedBaseline(), viewOf(store.Snapshot()))
}

func TestObserversReceiveChanges(t *testing.T) {
	store := NewStore(newFakeChatSource())

	var got []State
	cancel := store.Subscribe(func(st State) { got = append(got, st) })

	store.OpenChat("c1")
	store.OpenChat("c1")
	store.GoBackToThreads()

	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ActiveChatID)
	assert.Equal(t, ViewThreads, got[1].ActiveView)
	assert.Less(t, got[0].Version, got[1].Version)

	cancel()
	store.CloseChat()
	assert.Len(t, got, 2)
}

func TestSnapshotIsDetached(t *testing.T) {
	source := newFakeChatSource()
	store := NewStore(source)
	store.Start(context.Background(), "alice")
	source.emit(0, []*entity.Chat{chat("c1", entity.ChatStatusActive, "")}, nil)

	st := store.Snapshot()
	st.Chats[0] = nil
	st.ActiveChatID = "hacked"

	again := store.Snapshot()
	assert.NotNil(t, again.Chats[0])
	assert.Empty(t, again.ActiveChatID)
}

func TestConcurrentOpenChatConverges(t *testing.T) {
	store := NewStore(newFakeChatSource())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.OpenChat(fmt.Sprintf("c%d", i))
		}(i)
	}
	wg.Wait()

	store.OpenChat("final")
	st := store.Snapshot()
	assert.Equal(t, "final", st.ActiveChatID)
	assert.Equal(t, ViewConversation, st.ActiveView)
}
