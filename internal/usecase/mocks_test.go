package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
)

type MockChatRepo struct {
	mock.Mock

	mu               sync.Mutex
	chatListeners    map[repository.ParticipantField]repository.ChatListener
	messageListeners map[string]repository.MessageListener
	unsubscribed     int
}

func (m *MockChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Chat), args.Error(1)
}

func (m *MockChatRepo) GetByRequestID(ctx context.Context, requestID string) (*entity.Chat, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Chat), args.Error(1)
}

func (m *MockChatRepo) ListByParticipant(ctx context.Context, field repository.ParticipantField, userID string) ([]*entity.Chat, error) {
	args := m.Called(ctx, field, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Chat), args.Error(1)
}

func (m *MockChatRepo) CreateForRequest(ctx context.Context, chat *entity.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *MockChatRepo) FinalizeWithRequest(ctx context.Context, chatID string) (*entity.Chat, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Chat), args.Error(1)
}

func (m *MockChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockChatRepo) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Message), args.Error(1)
}

// Subscriptions are captured rather than mocked so tests can push snapshots.
func (m *MockChatRepo) SubscribeByParticipant(ctx context.Context, field repository.ParticipantField, userID string, listener repository.ChatListener) repository.Unsubscribe {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chatListeners == nil {
		m.chatListeners = make(map[repository.ParticipantField]repository.ChatListener)
	}
	m.chatListeners[field] = listener
	return m.unsubscribe
}

func (m *MockChatRepo) SubscribeMessages(ctx context.Context, chatID string, listener repository.MessageListener) repository.Unsubscribe {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.messageListeners == nil {
		m.messageListeners = make(map[string]repository.MessageListener)
	}
	m.messageListeners[chatID] = listener
	return m.unsubscribe
}

func (m *MockChatRepo) unsubscribe() {
	m.mu.Lock()
	m.unsubscribed++
	m.mu.Unlock()
}

func (m *MockChatRepo) emitChats(field repository.ParticipantField, chats []*entity.Chat, err error) {
	m.mu.Lock()
	listener := m.chatListeners[field]
	m.mu.Unlock()
	listener(chats, err)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

type MockHelpRequestRepo struct {
	mock.Mock
}

func (m *MockHelpRequestRepo) Create(ctx context.Context, r *entity.HelpRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockHelpRequestRepo) GetByID(ctx context.Context, id string) (*entity.HelpRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.HelpRequest), args.Error(1)
}

func (m *MockHelpRequestRepo) ListOpen(ctx context.Context, kind string, limit, offset int) ([]*entity.HelpRequest, int64, error) {
	args := m.Called(ctx, kind, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.HelpRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockHelpRequestRepo) ListByRequester(ctx context.Context, requesterID string) ([]*entity.HelpRequest, error) {
	args := m.Called(ctx, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.HelpRequest), args.Error(1)
}

func (m *MockHelpRequestRepo) AddPhoto(ctx context.Context, id, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

type MockAuthClient struct {
	mock.Mock
}

func (m *MockAuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	args := m.Called(ctx, email, password, displayName)
	return args.String(0), args.Error(1)
}

func (m *MockAuthClient) DeleteUser(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockAuthClient) RevokeRefreshTokens(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error) {
	args := m.Called(ctx, file, contentType, folder)
	return args.String(0), args.Error(1)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) CloseUser(userID string) int {
	args := m.Called(userID)
	return args.Int(0)
}

type stubLimiter struct {
	allow bool
	wait  time.Duration
}

func (l stubLimiter) Allow(key, action string) (bool, time.Duration) {
	return l.allow, l.wait
}

var allowAll = stubLimiter{allow: true}
