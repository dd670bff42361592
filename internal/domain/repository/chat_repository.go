package repository

import (
	"context"

	"campusaid/internal/domain/entity"
)

type ChatRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	GetByRequestID(ctx context.Context, requestID string) (*entity.Chat, error)
	ListByParticipant(ctx context.Context, field ParticipantField, userID string) ([]*entity.Chat, error)

	// CreateForRequest creates the chat and claims the open request for chat.HelperID in one transaction.
	CreateForRequest(ctx context.Context, chat *entity.Chat) error
	// FinalizeWithRequest finalizes the chat and completes its request in one transaction.
	FinalizeWithRequest(ctx context.Context, chatID string) (*entity.Chat, error)

	// CreateMessage stores the message and updates the chat's last-message preview.
	CreateMessage(ctx context.Context, message *entity.Message) error
	ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error)

	SubscribeByParticipant(ctx context.Context, field ParticipantField, userID string, listener ChatListener) Unsubscribe
	SubscribeMessages(ctx context.Context, chatID string, listener MessageListener) Unsubscribe
}
