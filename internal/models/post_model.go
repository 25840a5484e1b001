package models

import "time"

type Post struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Title         string     `db:"title" json:"title"`
	Content       string     `db:"content" json:"content"`
	Status        string     `db:"status" json:"status"` // draft, published, failed
	BloggerPostID string     `db:"blogger_post_id" json:"blogger_post_id"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)
