package usecase

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
	"campusaid/internal/infrastructure/ratelimit"
	"campusaid/pkg/errors"
)

const MaxMessageLength = 2000

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	rateLimiter Limiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	rateLimiter Limiter,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
	}
}

type SendMessageInput struct {
	ChatID      string
	Body        string
	SenderID    string
	SenderName  string // filled from the sender's profile when empty
	SenderEmail string
}

// GetUserChats returns every chat the user takes part in, as requester or helper, most recently
// updated first.
func (uc *ChatUseCase) GetUserChats(ctx context.Context, userID string) ([]*entity.Chat, error) {
	fields := participantFields()
	results := make([][]*entity.Chat, len(fields))

	g, gctx := errgroup.WithContext(ctx)
	for i, field := range fields {
		i, field := i, field
		g.Go(func() error {
			chats, err := uc.chatRepo.ListByParticipant(gctx, field, userID)
			if err != nil {
				return err
			}
			results[i] = chats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("GetUserChats Error: Failed to list chats for user %s: %v", userID, err)
		return nil, err
	}

	merged := make(map[string]*entity.Chat)
	for _, chats := range results {
		mergeInto(merged, chats)
	}
	return sortedChats(merged), nil
}

func (uc *ChatUseCase) GetChatByID(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		log.Printf("GetChatByID Error: Chat %s not found: %v", chatID, err)
		return nil, err
	}

	if !chat.HasParticipant(userID) {
		log.Printf("GetChatByID Error: User %s is not a participant in chat %s", userID, chatID)
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}

	return chat, nil
}

func (uc *ChatUseCase) GetChatByRequestID(ctx context.Context, userID, requestID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}
	return chat, nil
}

func (uc *ChatUseCase) GetChatMessages(ctx context.Context, userID, chatID string) ([]*entity.Message, error) {
	if _, err := uc.GetChatByID(ctx, userID, chatID); err != nil {
		return nil, err
	}

	messages, err := uc.chatRepo.ListMessages(ctx, chatID)
	if err != nil {
		log.Printf("GetChatMessages Error: Failed to get messages for chat %s: %v", chatID, err)
		return nil, err
	}

	return messages, nil
}

// SendMessage writes a message. Nothing is cached or appended locally: callers see the message
// once their message subscription delivers it.
func (uc *ChatUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*entity.Message, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, errors.BadRequest("Message body is required", nil)
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, errors.BadRequest("Message body is too long", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(input.SenderID, ratelimit.ActionSendMessage)
	if !allowed {
		log.Printf("SendMessage Rate Limited: User %s must wait %v", input.SenderID, waitTime)
		return nil, errors.TooManyRequests("You are sending messages too quickly. Please slow down.", waitTime)
	}

	chat, err := uc.GetChatByID(ctx, input.SenderID, input.ChatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsActive() {
		return nil, errors.Conflict("Conversation is finalized")
	}

	senderName, senderEmail := input.SenderName, input.SenderEmail
	if senderName == "" || senderEmail == "" {
		sender, err := uc.userRepo.GetByID(ctx, input.SenderID)
		if err != nil {
			log.Printf("SendMessage Warning: Sender profile %s not found: %v", input.SenderID, err)
		} else {
			if senderName == "" {
				senderName = sender.DisplayName
			}
			if senderEmail == "" {
				senderEmail = sender.Email
			}
		}
		if senderName == "" {
			senderName = chat.ParticipantNames[input.SenderID]
		}
	}

	message := &entity.Message{
		ConversationID: chat.ID,
		SenderID:       input.SenderID,
		SenderName:     senderName,
		SenderEmail:    senderEmail,
		Body:           body,
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		log.Printf("SendMessage Error: Failed to create message for chat %s: %v", chat.ID, err)
		return nil, err
	}

	return message, nil
}

// CompleteRequest finalizes the chat and completes its help request together. Only the requester
// may do this; completing an already finalized chat returns it unchanged.
func (uc *ChatUseCase) CompleteRequest(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.GetChatByID(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if chat.RequesterID != userID {
		return nil, errors.Forbidden("Only the requester can mark the request complete", nil)
	}
	if !chat.IsActive() {
		return chat, nil
	}

	finalized, err := uc.chatRepo.FinalizeWithRequest(ctx, chatID)
	if err != nil {
		log.Printf("CompleteRequest Error: Failed to finalize chat %s: %v", chatID, err)
		return nil, err
	}

	return finalized, nil
}

// SubscribeMessages streams a chat's messages to a participant. Non-participants get a single
// FORBIDDEN error and no subscription.
func (uc *ChatUseCase) SubscribeMessages(ctx context.Context, userID, chatID string, listener repository.MessageListener) repository.Unsubscribe {
	if _, err := uc.GetChatByID(ctx, userID, chatID); err != nil {
		listener(nil, err)
		return func() {}
	}
	return uc.chatRepo.SubscribeMessages(ctx, chatID, listener)
}
