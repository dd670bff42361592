package entity

import "time"

const (
	RequestKindRequest  = "request"
	RequestKindQuestion = "question"

	RequestStatusOpen       = "open"
	RequestStatusInProgress = "in_progress"
	RequestStatusCompleted  = "completed"
)

type HelpRequest struct {
	ID            string     `json:"id" firestore:"id"`
	Kind          string     `json:"kind" firestore:"kind"` // "request", "question"
	Title         string     `json:"title" firestore:"title"`
	Body          string     `json:"body" firestore:"body"`
	Category      string     `json:"category,omitempty" firestore:"category,omitempty"`
	RequesterID   string     `json:"requester_id" firestore:"requesterId"`
	RequesterName string     `json:"requester_name" firestore:"requesterName"`
	Status        string     `json:"status" firestore:"status"` // "open", "in_progress", "completed"
	HelperID      string     `json:"helper_id,omitempty" firestore:"helperId,omitempty"`
	ChatID        string     `json:"chat_id,omitempty" firestore:"chatId,omitempty"`
	PhotoURLs     []string   `json:"photo_urls,omitempty" firestore:"photoUrls,omitempty"`
	CreatedAt     time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time  `json:"updated_at" firestore:"updatedAt"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
}
