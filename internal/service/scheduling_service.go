package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/blogflow/internal/models"
	"github.com/maheshrc27/blogflow/internal/repository"
)

type SchedulingService interface {
	Schedule(ctx context.Context, userID, postID int64, scheduledAt time.Time) (*models.ScheduledPost, error)
	Reschedule(ctx context.Context, userID, scheduleID int64, scheduledAt time.Time) error
	Cancel(ctx context.Context, userID, scheduleID int64) error
	Retry(ctx context.Context, userID, scheduleID int64) error
	List(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error)
	DueCount(ctx context.Context, window time.Duration) (int64, error)
}

type schedulingService struct {
	sp  repository.ScheduledPostRepository
	pr  repository.PostRepository
	now func() time.Time
}

func NewSchedulingService(sp repository.ScheduledPostRepository, pr repository.PostRepository) SchedulingService {
	return &schedulingService{
		sp:  sp,
		pr:  pr,
		now: time.Now,
	}
}

func (s *schedulingService) Schedule(ctx context.Context, userID, postID int64, scheduledAt time.Time) (*models.ScheduledPost, error) {
	if !scheduledAt.After(s.now()) {
		slog.Info(ErrPastTime.Error())
		return nil, ErrPastTime
	}

	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrNotFound
	}

	existing, err := s.sp.GetByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		slog.Info(ErrScheduleExists.Error())
		return nil, ErrScheduleExists
	}

	sp := &models.ScheduledPost{
		PostID:      postID,
		UserID:      userID,
		ScheduledAt: scheduledAt,
		Status:      models.ScheduleStatusPending,
	}

	id, err := s.sp.Create(ctx, nil, sp)
	if err != nil {
		return nil, err
	}
	sp.ID = id

	return sp, nil
}

func (s *schedulingService) Reschedule(ctx context.Context, userID, scheduleID int64, scheduledAt time.Time) error {
	if !scheduledAt.After(s.now()) {
		slog.Info(ErrPastTime.Error())
		return ErrPastTime
	}

	sp, err := s.getOwned(ctx, userID, scheduleID)
	if err != nil {
		return err
	}

	if sp.Status == models.ScheduleStatusCompleted {
		slog.Info(ErrCompleted.Error())
		return ErrCompleted
	}

	return s.sp.UpdateSchedule(ctx, sp.ID, scheduledAt)
}

func (s *schedulingService) Cancel(ctx context.Context, userID, scheduleID int64) error {
	sp, err := s.getOwned(ctx, userID, scheduleID)
	if err != nil {
		return err
	}

	if sp.Status == models.ScheduleStatusCompleted {
		slog.Info(ErrCompleted.Error())
		return ErrCompleted
	}

	return s.sp.Remove(ctx, sp.ID)
}

// Retry re-enters a failed schedule into the pending pool. The attempt count
// is kept, so MaxAttempts bounds lifetime publish attempts; only the failure
// reason is cleared. A schedule whose time has already passed is nudged five
// minutes into the future so the next pass picks it up cleanly.
func (s *schedulingService) Retry(ctx context.Context, userID, scheduleID int64) error {
	sp, err := s.getOwned(ctx, userID, scheduleID)
	if err != nil {
		return err
	}

	if sp.Status != models.ScheduleStatusFailed {
		slog.Info(ErrRetryNotFailed.Error())
		return ErrRetryNotFailed
	}
	if sp.AttemptCount >= models.MaxAttempts {
		slog.Info(ErrRetryExhausted.Error())
		return ErrRetryExhausted
	}

	if sp.ScheduledAt.Before(s.now()) {
		if err := s.sp.UpdateSchedule(ctx, sp.ID, s.now().Add(5*time.Minute)); err != nil {
			return err
		}
		return nil
	}

	return s.sp.ResetToPending(ctx, sp.ID)
}

func (s *schedulingService) List(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error) {
	return s.sp.ListByUserID(ctx, userID, status)
}

func (s *schedulingService) DueCount(ctx context.Context, window time.Duration) (int64, error) {
	return s.sp.CountDueWithin(ctx, s.now(), window)
}

func (s *schedulingService) getOwned(ctx context.Context, userID, scheduleID int64) (*models.ScheduledPost, error) {
	sp, err := s.sp.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sp == nil || sp.UserID != userID {
		return nil, ErrNotFound
	}
	return sp, nil
}
