package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/blogflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPublishedKeepsFirstRemoteID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("blogger_post_id = COALESCE(blogger_post_id, $2)")).
		WithArgs(models.PostStatusPublished, "abc123", now, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewPostRepository(db)
	require.NoError(t, r.SetPublished(context.Background(), 10, "abc123", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostByIDNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "title", "content", "status",
			"blogger_post_id", "published_at", "created_at", "updated_at",
		}))

	r := NewPostRepository(db)
	post, err := r.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestCheckByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM posts WHERE id = $1 AND user_id = $2")).
		WithArgs(int64(10), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	r := NewPostRepository(db)
	owned, err := r.CheckByUserID(context.Background(), 10, 7)
	require.NoError(t, err)
	assert.True(t, owned)
}
