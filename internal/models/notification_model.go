package models

import "time"

type Notification struct {
	ID        int64      `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"user_id"`
	Type      string     `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	PostID    int64      `db:"post_id" json:"post_id"`
	ReadAt    *time.Time `db:"read_at" json:"read_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

const (
	NotificationTypePublished = "scheduled_post_published"
	NotificationTypeFailed    = "scheduled_post_failed"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// OutcomeEvent is emitted by the publish job for every processed schedule
// and consumed by the notification dispatcher.
type OutcomeEvent struct {
	EventID    string    `json:"event_id"`
	ScheduleID int64     `json:"schedule_id"`
	PostID     int64     `json:"post_id"`
	UserID     int64     `json:"user_id"`
	PostTitle  string    `json:"post_title"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
