package notification

import "time"

// Notification types
const (
	TypeLesson       = "LESSON"
	TypeQA           = "QA"
	TypeSubscription = "SUBSCRIPTION"
)

const feedSize = 20

type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Type      string    `json:"type" db:"type"`
	Link      *string   `json:"link" db:"link"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewNotification contains information needed to notify users.
type NewNotification struct {
	Title   string
	Message string
	Type    string
	Link    string
}

type Feed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
