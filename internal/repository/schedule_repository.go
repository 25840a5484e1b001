package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/blogflow/internal/models"
)

type ScheduledPostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sp *models.ScheduledPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	GetByPostID(ctx context.Context, postID int64) (*models.ScheduledPost, error)
	ListByUserID(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	CountDueWithin(ctx context.Context, now time.Time, window time.Duration) (int64, error)
	UpdateSchedule(ctx context.Context, id int64, scheduledAt time.Time) error
	MarkCompleted(ctx context.Context, id int64, attemptAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id int64, reason string, attemptAt time.Time) (bool, error)
	ResetToPending(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const scheduledPostColumns = `id, post_id, user_id, scheduled_at, status, failure_reason, attempt_count, last_attempt_at, created_at, updated_at`

func scanScheduledPost(row interface{ Scan(...interface{}) error }) (*models.ScheduledPost, error) {
	var sp models.ScheduledPost
	var reason sql.NullString
	var lastAttempt sql.NullTime

	err := row.Scan(&sp.ID, &sp.PostID, &sp.UserID, &sp.ScheduledAt, &sp.Status,
		&reason, &sp.AttemptCount, &lastAttempt, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sp.FailureReason = reason.String
	if lastAttempt.Valid {
		t := lastAttempt.Time
		sp.LastAttemptAt = &t
	}
	return &sp, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, tx *sql.Tx, sp *models.ScheduledPost) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (post_id, user_id, scheduled_at, status, attempt_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, sp.PostID, sp.UserID, sp.ScheduledAt, sp.Status, sp.AttemptCount).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, sp.PostID, sp.UserID, sp.ScheduledAt, sp.Status, sp.AttemptCount).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	sp, err := scanScheduledPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return sp, nil
}

func (r *scheduledPostRepository) GetByPostID(ctx context.Context, postID int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE post_id = $1`
	row := r.db.QueryRowContext(ctx, query, postID)

	sp, err := scanScheduledPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return sp, nil
}

func (r *scheduledPostRepository) ListByUserID(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE user_id = $1`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var sps []*models.ScheduledPost
	for rows.Next() {
		sp, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		sps = append(sps, sp)
	}
	return sps, rows.Err()
}

// ListDue returns pending schedules whose time has passed and that still have
// attempt budget, oldest due first.
func (r *scheduledPostRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts
		WHERE status = $1 AND scheduled_at <= $2 AND attempt_count < $3
		ORDER BY scheduled_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.ScheduleStatusPending, now, models.MaxAttempts)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var sps []*models.ScheduledPost
	for rows.Next() {
		sp, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		sps = append(sps, sp)
	}
	return sps, rows.Err()
}

func (r *scheduledPostRepository) CountDueWithin(ctx context.Context, now time.Time, window time.Duration) (int64, error) {
	query := `SELECT COUNT(*) FROM scheduled_posts
		WHERE status = $1 AND scheduled_at <= $2 AND attempt_count < $3`

	var count int64
	err := r.db.QueryRowContext(ctx, query, models.ScheduleStatusPending, now.Add(window), models.MaxAttempts).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *scheduledPostRepository) UpdateSchedule(ctx context.Context, id int64, scheduledAt time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET scheduled_at = $1,
			status = $2,
			failure_reason = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, scheduledAt, models.ScheduleStatusPending, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkCompleted transitions pending -> completed. The status guard makes the
// write a no-op when the schedule was cancelled while a publish was in
// flight; callers get false in that case.
func (r *scheduledPostRepository) MarkCompleted(ctx context.Context, id int64, attemptAt time.Time) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			last_attempt_at = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.ScheduleStatusCompleted, attemptAt, id, models.ScheduleStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

// MarkFailed transitions pending -> failed and burns one attempt. Guarded the
// same way as MarkCompleted.
func (r *scheduledPostRepository) MarkFailed(ctx context.Context, id int64, reason string, attemptAt time.Time) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			failure_reason = $2,
			attempt_count = attempt_count + 1,
			last_attempt_at = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, models.ScheduleStatusFailed, reason, attemptAt, id, models.ScheduleStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *scheduledPostRepository) ResetToPending(ctx context.Context, id int64) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			failure_reason = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, models.ScheduleStatusPending, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM scheduled_posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
