package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/blogflow/internal/models"
)

type CredentialRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.OAuthCredential, error)
	Upsert(ctx context.Context, cred *models.OAuthCredential) (int64, error)
	SetToken(ctx context.Context, userID int64, oldAccessToken string, cred *models.OAuthCredential) error
	ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]*models.OAuthCredential, error)
	Remove(ctx context.Context, userID int64) error
}

type credentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) GetByUserID(ctx context.Context, userID int64) (*models.OAuthCredential, error) {
	query := `SELECT id, user_id, access_token, refresh_token, token_type, expires_at, created_at, updated_at
		FROM credentials WHERE user_id = $1`
	row := r.db.QueryRowContext(ctx, query, userID)

	var cred models.OAuthCredential
	err := row.Scan(&cred.ID, &cred.UserID, &cred.AccessToken, &cred.RefreshToken,
		&cred.TokenType, &cred.ExpiresAt, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &cred, nil
}

func (r *credentialRepository) Upsert(ctx context.Context, cred *models.OAuthCredential) (int64, error) {
	query := `
		INSERT INTO credentials (user_id, access_token, refresh_token, token_type, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), credentials.refresh_token),
			token_type = EXCLUDED.token_type,
			expires_at = EXCLUDED.expires_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, cred.UserID, cred.AccessToken, cred.RefreshToken,
		cred.TokenType, cred.ExpiresAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

// SetToken persists a refreshed access token. The old access token acts as a
// compare-and-swap guard so two refreshes for the same user cannot clobber
// each other.
func (r *credentialRepository) SetToken(ctx context.Context, userID int64, oldAccessToken string, cred *models.OAuthCredential) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE credentials
		SET access_token = COALESCE(NULLIF($3, ''), access_token),
			refresh_token = COALESCE(NULLIF($4, ''), refresh_token),
			expires_at = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND access_token = $2
	`
	result, err := tx.ExecContext(ctx, query, userID, oldAccessToken, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("no rows affected; credential may have been refreshed concurrently")
		return errors.New("no rows affected; credential may have been refreshed concurrently")
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ListExpiringWithin returns credentials whose access token expires between
// now and now+window. Already-expired grants are excluded; re-trying those on
// every pass gains nothing, the lazy path picks them up on the next publish.
func (r *credentialRepository) ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]*models.OAuthCredential, error) {
	query := `SELECT id, user_id, access_token, refresh_token, token_type, expires_at, created_at, updated_at
		FROM credentials
		WHERE expires_at BETWEEN $1 AND $2`

	rows, err := r.db.QueryContext(ctx, query, now, now.Add(window))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var creds []*models.OAuthCredential
	for rows.Next() {
		var cred models.OAuthCredential
		err := rows.Scan(&cred.ID, &cred.UserID, &cred.AccessToken, &cred.RefreshToken,
			&cred.TokenType, &cred.ExpiresAt, &cred.CreatedAt, &cred.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		creds = append(creds, &cred)
	}
	return creds, rows.Err()
}

func (r *credentialRepository) Remove(ctx context.Context, userID int64) error {
	query := `DELETE FROM credentials WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
