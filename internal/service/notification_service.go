package service

import (
	"context"
	"fmt"
	"time"

	"github.com/maheshrc27/blogflow/internal/models"
	"github.com/maheshrc27/blogflow/internal/repository"
)

type NotificationService interface {
	RecordOutcome(ctx context.Context, ev *models.OutcomeEvent) error
	List(ctx context.Context, userID int64, unreadOnly bool) (*NotificationList, error)
	MarkRead(ctx context.Context, userID int64, ids []int64) error
}

type NotificationList struct {
	Notifications []*models.Notification `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
}

type notificationService struct {
	nr  repository.NotificationRepository
	now func() time.Time
}

func NewNotificationService(nr repository.NotificationRepository) NotificationService {
	return &notificationService{
		nr:  nr,
		now: time.Now,
	}
}

// RecordOutcome turns a publish outcome event into a user-facing
// notification row.
func (s *notificationService) RecordOutcome(ctx context.Context, ev *models.OutcomeEvent) error {
	n := &models.Notification{
		UserID: ev.UserID,
		PostID: ev.PostID,
	}

	switch ev.Outcome {
	case models.OutcomeSuccess:
		n.Type = models.NotificationTypePublished
		n.Title = "Scheduled Post Published"
		n.Message = fmt.Sprintf("Your scheduled post '%s' has been published successfully.", ev.PostTitle)
	default:
		n.Type = models.NotificationTypeFailed
		n.Title = "Scheduled Post Failed"
		n.Message = fmt.Sprintf("Failed to publish scheduled post '%s'. Error: %s", ev.PostTitle, ev.Reason)
	}

	_, err := s.nr.Create(ctx, n)
	return err
}

func (s *notificationService) List(ctx context.Context, userID int64, unreadOnly bool) (*NotificationList, error) {
	ns, err := s.nr.GetByUserID(ctx, userID, unreadOnly, 10)
	if err != nil {
		return nil, err
	}

	unread, err := s.nr.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &NotificationList{Notifications: ns, UnreadCount: unread}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID int64, ids []int64) error {
	return s.nr.MarkRead(ctx, userID, ids, s.now())
}
