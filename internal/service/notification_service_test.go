package service

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/blogflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotificationRepo struct {
	created []*models.Notification
	read    []int64
	readAt  time.Time
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) (int64, error) {
	f.created = append(f.created, n)
	return int64(len(f.created)), nil
}

func (f *fakeNotificationRepo) GetByUserID(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*models.Notification, error) {
	return f.created, nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return int64(len(f.created)), nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, userID int64, ids []int64, readAt time.Time) error {
	f.read = append(f.read, ids...)
	f.readAt = readAt
	return nil
}

func TestRecordOutcomeSuccess(t *testing.T) {
	repo := &fakeNotificationRepo{}
	s := NewNotificationService(repo)

	err := s.RecordOutcome(context.Background(), &models.OutcomeEvent{
		UserID:    7,
		PostID:    1,
		PostTitle: "My Post",
		Outcome:   models.OutcomeSuccess,
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.Equal(t, models.NotificationTypePublished, n.Type)
	assert.Equal(t, "Scheduled Post Published", n.Title)
	assert.Equal(t, "Your scheduled post 'My Post' has been published successfully.", n.Message)
	assert.Equal(t, int64(7), n.UserID)
	assert.Equal(t, int64(1), n.PostID)
}

func TestRecordOutcomeFailure(t *testing.T) {
	repo := &fakeNotificationRepo{}
	s := NewNotificationService(repo)

	err := s.RecordOutcome(context.Background(), &models.OutcomeEvent{
		UserID:    7,
		PostID:    1,
		PostTitle: "My Post",
		Outcome:   models.OutcomeFailure,
		Reason:    "timeout",
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.Equal(t, models.NotificationTypeFailed, n.Type)
	assert.Equal(t, "Scheduled Post Failed", n.Title)
	assert.Equal(t, "Failed to publish scheduled post 'My Post'. Error: timeout", n.Message)
}

func TestMarkReadUsesInjectedClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeNotificationRepo{}
	s := NewNotificationService(repo).(*notificationService)
	s.now = func() time.Time { return now }

	require.NoError(t, s.MarkRead(context.Background(), 7, []int64{1, 2}))
	assert.Equal(t, []int64{1, 2}, repo.read)
	assert.Equal(t, now, repo.readAt)
}
