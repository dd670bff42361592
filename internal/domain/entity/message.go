package entity

import "time"

// Message is immutable once written.
type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	SenderName     string    `json:"sender_name" firestore:"senderName"`
	SenderEmail    string    `json:"sender_email" firestore:"senderEmail"`
	Body           string    `json:"body" firestore:"body"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}
