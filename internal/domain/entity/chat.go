package entity

import "time"

const (
	ChatStatusActive    = "active"
	ChatStatusFinalized = "finalized"
)

// Chat is the conversation between the requester and the helper of one help request.
type Chat struct {
	ID                  string            `json:"id" firestore:"id"`
	RequestID           string            `json:"request_id" firestore:"requestId"`
	RequestTitle        string            `json:"request_title" firestore:"requestTitle"`
	ParticipantIDs      []string          `json:"participant_ids" firestore:"participantIds"`
	ParticipantNames    map[string]string `json:"participant_names" firestore:"participantNames"`
	RequesterID         string            `json:"requester_id" firestore:"requesterId"`
	HelperID            string            `json:"helper_id" firestore:"helperId"`
	Status              string            `json:"status" firestore:"status"` // "active", "finalized"
	LastMessage         string            `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt       *time.Time        `json:"last_message_at,omitempty" firestore:"lastMessageAt,omitempty"`
	LastMessageSenderID string            `json:"last_message_sender_id,omitempty" firestore:"lastMessageSenderId,omitempty"`
	CreatedAt           time.Time         `json:"created_at" firestore:"createdAt"`
	UpdatedAt           time.Time         `json:"updated_at" firestore:"updatedAt"`
	FinalizedAt         *time.Time        `json:"finalized_at,omitempty" firestore:"finalizedAt,omitempty"`
}

func (c *Chat) IsActive() bool {
	return c.Status == ChatStatusActive
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the id of the participant that is not userID.
func (c *Chat) OtherParticipant(userID string) string {
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id
		}
	}
	return ""
}
