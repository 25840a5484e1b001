package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/maheshrc27/blogflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduleRepo struct {
	byID     map[int64]*models.ScheduledPost
	byPostID map[int64]*models.ScheduledPost
	nextID   int64

	created   []*models.ScheduledPost
	updated   map[int64]time.Time
	reset     []int64
	removed   []int64
	completed []int64
	failed    map[int64]string
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		byID:     make(map[int64]*models.ScheduledPost),
		byPostID: make(map[int64]*models.ScheduledPost),
		nextID:   1,
		updated:  make(map[int64]time.Time),
		failed:   make(map[int64]string),
	}
}

func (f *fakeScheduleRepo) add(sp *models.ScheduledPost) *models.ScheduledPost {
	if sp.ID == 0 {
		sp.ID = f.nextID
		f.nextID++
	}
	f.byID[sp.ID] = sp
	f.byPostID[sp.PostID] = sp
	return sp
}

func (f *fakeScheduleRepo) Create(ctx context.Context, tx *sql.Tx, sp *models.ScheduledPost) (int64, error) {
	f.created = append(f.created, sp)
	f.add(sp)
	return sp.ID, nil
}

func (f *fakeScheduleRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	return f.byID[id], nil
}

func (f *fakeScheduleRepo) GetByPostID(ctx context.Context, postID int64) (*models.ScheduledPost, error) {
	return f.byPostID[postID], nil
}

func (f *fakeScheduleRepo) ListByUserID(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error) {
	var out []*models.ScheduledPost
	for _, sp := range f.byID {
		if sp.UserID == userID && (status == "" || sp.Status == status) {
			out = append(out, sp)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) CountDueWithin(ctx context.Context, now time.Time, window time.Duration) (int64, error) {
	var count int64
	for _, sp := range f.byID {
		if sp.Status == models.ScheduleStatusPending && !sp.ScheduledAt.After(now.Add(window)) && sp.AttemptCount < models.MaxAttempts {
			count++
		}
	}
	return count, nil
}

func (f *fakeScheduleRepo) UpdateSchedule(ctx context.Context, id int64, scheduledAt time.Time) error {
	f.updated[id] = scheduledAt
	if sp, ok := f.byID[id]; ok {
		sp.ScheduledAt = scheduledAt
		sp.Status = models.ScheduleStatusPending
		sp.FailureReason = ""
	}
	return nil
}

func (f *fakeScheduleRepo) MarkCompleted(ctx context.Context, id int64, attemptAt time.Time) (bool, error) {
	sp, ok := f.byID[id]
	if !ok || sp.Status != models.ScheduleStatusPending {
		return false, nil
	}
	sp.Status = models.ScheduleStatusCompleted
	f.completed = append(f.completed, id)
	return true, nil
}

func (f *fakeScheduleRepo) MarkFailed(ctx context.Context, id int64, reason string, attemptAt time.Time) (bool, error) {
	sp, ok := f.byID[id]
	if !ok || sp.Status != models.ScheduleStatusPending {
		return false, nil
	}
	sp.Status = models.ScheduleStatusFailed
	sp.FailureReason = reason
	sp.AttemptCount++
	f.failed[id] = reason
	return true, nil
}

func (f *fakeScheduleRepo) ResetToPending(ctx context.Context, id int64) error {
	f.reset = append(f.reset, id)
	if sp, ok := f.byID[id]; ok {
		sp.Status = models.ScheduleStatusPending
		sp.FailureReason = ""
	}
	return nil
}

func (f *fakeScheduleRepo) Remove(ctx context.Context, id int64) error {
	f.removed = append(f.removed, id)
	if sp, ok := f.byID[id]; ok {
		delete(f.byPostID, sp.PostID)
	}
	delete(f.byID, id)
	return nil
}

type fakePostRepo struct {
	byID        map[int64]*models.Post
	statusByID  map[int64]string
	publishedID map[int64]string
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		byID:        make(map[int64]*models.Post),
		statusByID:  make(map[int64]string),
		publishedID: make(map[int64]string),
	}
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	return f.byID[id], nil
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	f.byID[post.ID] = post
	return post.ID, nil
}

func (f *fakePostRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	post, ok := f.byID[postID]
	return ok && post.UserID == userID, nil
}

func (f *fakePostRepo) UpdatePostStatus(ctx context.Context, status string, postID int64) error {
	f.statusByID[postID] = status
	if post, ok := f.byID[postID]; ok {
		post.Status = status
	}
	return nil
}

func (f *fakePostRepo) SetPublished(ctx context.Context, postID int64, bloggerPostID string, publishedAt time.Time) error {
	if _, ok := f.publishedID[postID]; !ok {
		f.publishedID[postID] = bloggerPostID
	}
	if post, ok := f.byID[postID]; ok {
		post.Status = models.PostStatusPublished
		if post.BloggerPostID == "" {
			post.BloggerPostID = bloggerPostID
		}
		t := publishedAt
		post.PublishedAt = &t
	}
	return nil
}

func (f *fakePostRepo) Remove(ctx context.Context, id int64) error {
	delete(f.byID, id)
	return nil
}

func newTestSchedulingService(sp *fakeScheduleRepo, pr *fakePostRepo, now time.Time) SchedulingService {
	s := NewSchedulingService(sp, pr).(*schedulingService)
	s.now = func() time.Time { return now }
	return s
}

func TestScheduleRejectsPastTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	pr.byID[1] = &models.Post{ID: 1, UserID: 7, Status: models.PostStatusDraft}

	s := newTestSchedulingService(sp, pr, now)

	_, err := s.Schedule(context.Background(), 7, 1, now.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrPastTime)

	_, err = s.Schedule(context.Background(), 7, 1, now)
	assert.ErrorIs(t, err, ErrPastTime)

	assert.Empty(t, sp.created)
}

func TestScheduleRejectsForeignPost(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	pr.byID[1] = &models.Post{ID: 1, UserID: 99}

	s := newTestSchedulingService(sp, pr, now)

	_, err := s.Schedule(context.Background(), 7, 1, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleRejectsDuplicate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	pr.byID[1] = &models.Post{ID: 1, UserID: 7}
	sp.add(&models.ScheduledPost{PostID: 1, UserID: 7, Status: models.ScheduleStatusPending})

	s := newTestSchedulingService(sp, pr, now)

	_, err := s.Schedule(context.Background(), 7, 1, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrScheduleExists)
}

func TestScheduleCreatesPending(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	at := now.Add(2 * time.Hour)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	pr.byID[1] = &models.Post{ID: 1, UserID: 7}

	s := newTestSchedulingService(sp, pr, now)

	created, err := s.Schedule(context.Background(), 7, 1, at)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.ScheduleStatusPending, created.Status)
	assert.Equal(t, at, created.ScheduledAt)
	assert.Equal(t, 0, created.AttemptCount)
	assert.NotZero(t, created.ID)
}

func TestRescheduleCompletedFails(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	rec := sp.add(&models.ScheduledPost{PostID: 1, UserID: 7, Status: models.ScheduleStatusCompleted})

	s := newTestSchedulingService(sp, pr, now)

	err := s.Reschedule(context.Background(), 7, rec.ID, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrCompleted)
	assert.Empty(t, sp.updated)
}

func TestRescheduleFailedReentersPending(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	at := now.Add(time.Hour)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	rec := sp.add(&models.ScheduledPost{
		PostID:        1,
		UserID:        7,
		Status:        models.ScheduleStatusFailed,
		FailureReason: "timeout",
		AttemptCount:  1,
	})

	s := newTestSchedulingService(sp, pr, now)

	require.NoError(t, s.Reschedule(context.Background(), 7, rec.ID, at))
	assert.Equal(t, models.ScheduleStatusPending, rec.Status)
	assert.Equal(t, at, rec.ScheduledAt)
	assert.Empty(t, rec.FailureReason)
	// the attempt budget is not replenished by moving the time
	assert.Equal(t, 1, rec.AttemptCount)
}

func TestCancelRemovesPending(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	rec := sp.add(&models.ScheduledPost{PostID: 1, UserID: 7, Status: models.ScheduleStatusPending})

	s := newTestSchedulingService(sp, pr, now)

	require.NoError(t, s.Cancel(context.Background(), 7, rec.ID))
	assert.Contains(t, sp.removed, rec.ID)
}

func TestCancelCompletedFails(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	rec := sp.add(&models.ScheduledPost{PostID: 1, UserID: 7, Status: models.ScheduleStatusCompleted})

	s := newTestSchedulingService(sp, pr, now)

	assert.ErrorIs(t, s.Cancel(context.Background(), 7, rec.ID), ErrCompleted)
	assert.Empty(t, sp.removed)
}

func TestCancelForeignScheduleNotFound(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	rec := sp.add(&models.ScheduledPost{PostID: 1, UserID: 99, Status: models.ScheduleStatusPending})

	s := newTestSchedulingService(sp, pr, now)

	assert.ErrorIs(t, s.Cancel(context.Background(), 7, rec.ID), ErrNotFound)
}

func TestRetryOnlyFailed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	rec := sp.add(&models.ScheduledPost{PostID: 1, UserID: 7, Status: models.ScheduleStatusPending})

	s := newTestSchedulingService(sp, pr, now)

	assert.ErrorIs(t, s.Retry(context.Background(), 7, rec.ID), ErrRetryNotFailed)
}

func TestRetryExhausted(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	rec := sp.add(&models.ScheduledPost{
		PostID:       1,
		UserID:       7,
		Status:       models.ScheduleStatusFailed,
		AttemptCount: models.MaxAttempts,
	})

	s := newTestSchedulingService(sp, pr, now)

	assert.ErrorIs(t, s.Retry(context.Background(), 7, rec.ID), ErrRetryExhausted)
	assert.Equal(t, models.ScheduleStatusFailed, rec.Status)
}

func TestRetryKeepsAttemptCount(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	rec := sp.add(&models.ScheduledPost{
		PostID:        1,
		UserID:        7,
		ScheduledAt:   now.Add(time.Hour),
		Status:        models.ScheduleStatusFailed,
		FailureReason: "timeout",
		AttemptCount:  2,
	})

	s := newTestSchedulingService(sp, pr, now)

	require.NoError(t, s.Retry(context.Background(), 7, rec.ID))
	assert.Equal(t, models.ScheduleStatusPending, rec.Status)
	assert.Empty(t, rec.FailureReason)
	assert.Equal(t, 2, rec.AttemptCount)
	assert.Contains(t, sp.reset, rec.ID)
}

func TestRetryNudgesPastDueSchedule(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	rec := sp.add(&models.ScheduledPost{
		PostID:       1,
		UserID:       7,
		ScheduledAt:  now.Add(-time.Hour),
		Status:       models.ScheduleStatusFailed,
		AttemptCount: 1,
	})

	s := newTestSchedulingService(sp, pr, now)

	require.NoError(t, s.Retry(context.Background(), 7, rec.ID))
	assert.Equal(t, models.ScheduleStatusPending, rec.Status)
	assert.Equal(t, now.Add(5*time.Minute), sp.updated[rec.ID])
}

func TestDueCountUsesWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sp := newFakeScheduleRepo()
	pr := newFakePostRepo()
	sp.add(&models.ScheduledPost{PostID: 1, UserID: 7, ScheduledAt: now.Add(10 * time.Minute), Status: models.ScheduleStatusPending})
	sp.add(&models.ScheduledPost{PostID: 2, UserID: 7, ScheduledAt: now.Add(2 * time.Hour), Status: models.ScheduleStatusPending})
	sp.add(&models.ScheduledPost{PostID: 3, UserID: 7, ScheduledAt: now.Add(-time.Minute), Status: models.ScheduleStatusCompleted})

	s := newTestSchedulingService(sp, pr, now)

	count, err := s.DueCount(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
