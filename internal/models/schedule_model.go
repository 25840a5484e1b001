package models

import "time"

// ScheduledPost is one pending-or-terminal publication intent for a post.
// At most one schedule exists per post (schedule_posts.post_id is UNIQUE).
type ScheduledPost struct {
	ID            int64      `db:"id" json:"id"`
	PostID        int64      `db:"post_id" json:"post_id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	ScheduledAt   time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Status        string     `db:"status" json:"status"` // pending, completed, failed
	FailureReason string     `db:"failure_reason" json:"failure_reason"`
	AttemptCount  int        `db:"attempt_count" json:"attempt_count"`
	LastAttemptAt *time.Time `db:"last_attempt_at" json:"last_attempt_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	ScheduleStatusPending   = "pending"
	ScheduleStatusCompleted = "completed"
	ScheduleStatusFailed    = "failed"
)

// MaxAttempts caps failed publish attempts before a schedule requires a
// manual retry. The count is preserved across manual retries so it bounds
// total calls to the external API.
const MaxAttempts = 3

// IsDue reports whether the schedule should be picked up by a publish pass.
func (sp *ScheduledPost) IsDue(now time.Time) bool {
	return sp.Status == ScheduleStatusPending &&
		!sp.ScheduledAt.After(now) &&
		sp.AttemptCount < MaxAttempts
}
