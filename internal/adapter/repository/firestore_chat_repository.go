package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
	"campusaid/pkg/errors"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) chats() *firestore.CollectionRef {
	return r.client.Collection(chatsCollection)
}

func (r *firestoreChatRepository) messages(chatID string) *firestore.CollectionRef {
	return r.chats().Doc(chatID).Collection(messagesCollection)
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.chats().Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError(err, "Chat", "Failed to get chat")
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID

	return &chat, nil
}

func (r *firestoreChatRepository) GetByRequestID(ctx context.Context, requestID string) (*entity.Chat, error) {
	iter := r.chats().Where("requestId", "==", requestID).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Chat for request", nil)
		}
		return nil, errors.Internal("Failed to query chat by request ID", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID

	return &chat, nil
}

func (r *firestoreChatRepository) participantQuery(field repository.ParticipantField, userID string) firestore.Query {
	return r.chats().Where(string(field), "==", userID).OrderBy("updatedAt", firestore.Desc)
}

func (r *firestoreChatRepository) ListByParticipant(ctx context.Context, field repository.ParticipantField, userID string) ([]*entity.Chat, error) {
	docs, err := r.participantQuery(field, userID).Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while fetching chats for %s %s: %v", field, userID, err)
		return nil, errors.Internal("Failed to fetch chats", err)
	}

	return decodeChats(docs), nil
}

func (r *firestoreChatRepository) CreateForRequest(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	now := time.Now()
	chat.Status = entity.ChatStatusActive
	chat.CreatedAt = now
	chat.UpdatedAt = now

	requestRef := r.client.Collection(requestsCollection).Doc(chat.RequestID)
	chatRef := r.chats().Doc(chat.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(requestRef)
		if err != nil {
			return storeError(err, "Help request", "Failed to get help request")
		}

		var request entity.HelpRequest
		if err := doc.DataTo(&request); err != nil {
			return errors.Internal("Failed to parse help request data", err)
		}
		if request.Status != entity.RequestStatusOpen {
			return errors.Conflict("Help request is no longer open")
		}

		if err := tx.Create(chatRef, chat); err != nil {
			return err
		}

		return tx.Update(requestRef, []firestore.Update{
			{Path: "status", Value: entity.RequestStatusInProgress},
			{Path: "helperId", Value: chat.HelperID},
			{Path: "chatId", Value: chat.ID},
			{Path: "updatedAt", Value: now},
		})
	})

	return storeError(err, "Help request", "Failed to create chat")
}

func (r *firestoreChatRepository) FinalizeWithRequest(ctx context.Context, chatID string) (*entity.Chat, error) {
	chatRef := r.chats().Doc(chatID)
	var result entity.Chat

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		chatDoc, err := tx.Get(chatRef)
		if err != nil {
			return storeError(err, "Chat", "Failed to get chat")
		}

		var chat entity.Chat
		if err := chatDoc.DataTo(&chat); err != nil {
			return errors.Internal("Failed to parse chat data", err)
		}
		chat.ID = chatDoc.Ref.ID

		if !chat.IsActive() {
			result = chat
			return nil
		}

		// All reads happen before the first write.
		requestRef := r.client.Collection(requestsCollection).Doc(chat.RequestID)
		if _, err := tx.Get(requestRef); err != nil {
			return storeError(err, "Help request", "Failed to get help request")
		}

		now := time.Now()
		if err := tx.Update(chatRef, []firestore.Update{
			{Path: "status", Value: entity.ChatStatusFinalized},
			{Path: "finalizedAt", Value: now},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}
		if err := tx.Update(requestRef, []firestore.Update{
			{Path: "status", Value: entity.RequestStatusCompleted},
			{Path: "completedAt", Value: now},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}

		chat.Status = entity.ChatStatusFinalized
		chat.FinalizedAt = &now
		chat.UpdatedAt = now
		result = chat
		return nil
	})
	if err != nil {
		return nil, storeError(err, "Chat", "Failed to finalize chat")
	}

	return &result, nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()

	chatRef := r.chats().Doc(message.ConversationID)
	messageRef := r.messages(message.ConversationID).Doc(message.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(chatRef)
		if err != nil {
			return storeError(err, "Chat", "Failed to get chat")
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return errors.Internal("Failed to parse chat data", err)
		}
		if !chat.IsActive() {
			return errors.Conflict("Conversation is finalized")
		}

		if err := tx.Create(messageRef, message); err != nil {
			return err
		}

		return tx.Update(chatRef, []firestore.Update{
			{Path: "lastMessage", Value: message.Body},
			{Path: "lastMessageAt", Value: message.CreatedAt},
			{Path: "lastMessageSenderId", Value: message.SenderID},
			{Path: "updatedAt", Value: message.CreatedAt},
		})
	})

	return storeError(err, "Chat", "Failed to create message")
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	docs, err := r.messages(chatID).OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while fetching messages for chat %s: %v", chatID, err)
		return nil, errors.Internal("Failed to fetch messages", err)
	}

	return decodeMessages(docs), nil
}

func (r *firestoreChatRepository) SubscribeByParticipant(ctx context.Context, field repository.ParticipantField, userID string, listener repository.ChatListener) repository.Unsubscribe {
	return listen(ctx, r.participantQuery(field, userID), "chats:"+string(field), userID, func(docs []*firestore.DocumentSnapshot, err error) {
		if err != nil {
			listener(nil, err)
			return
		}
		listener(decodeChats(docs), nil)
	})
}

func (r *firestoreChatRepository) SubscribeMessages(ctx context.Context, chatID string, listener repository.MessageListener) repository.Unsubscribe {
	query := r.messages(chatID).OrderBy("createdAt", firestore.Asc)
	return listen(ctx, query, "messages", chatID, func(docs []*firestore.DocumentSnapshot, err error) {
		if err != nil {
			listener(nil, err)
			return
		}
		listener(decodeMessages(docs), nil)
	})
}

func decodeChats(docs []*firestore.DocumentSnapshot) []*entity.Chat {
	chats := make([]*entity.Chat, 0, len(docs))
	for _, doc := range docs {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			log.Printf("Error parsing chat %s: %v", doc.Ref.ID, err)
			continue // Skip bad data instead of failing
		}
		chat.ID = doc.Ref.ID
		chats = append(chats, &chat)
	}
	return chats
}

func decodeMessages(docs []*firestore.DocumentSnapshot) []*entity.Message {
	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			log.Printf("Error parsing message %s: %v", doc.Ref.ID, err)
			continue
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}
	return messages
}
