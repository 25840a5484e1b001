package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/blogflow/internal/models"
	"github.com/maheshrc27/blogflow/internal/repository"
	"github.com/maheshrc27/blogflow/internal/transfer"
)

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	pr repository.PostRepository
	sp repository.ScheduledPostRepository
}

func NewPostService(pr repository.PostRepository, sp repository.ScheduledPostRepository) PostService {
	return &postService{
		pr: pr,
		sp: sp,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, err
	}
	if pc.Title == "" {
		err := errors.New("title cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}
	if pc.Content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return 0, err
	}

	post := &models.Post{
		UserID:  userID,
		Title:   pc.Title,
		Content: pc.Content,
		Status:  models.PostStatusDraft,
	}

	id, err := s.pr.Create(ctx, nil, post)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	return s.pr.GetByUserID(ctx, userID)
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.UserID != userID {
		return nil, ErrNotFound
	}
	return post, nil
}

// Remove deletes the post and any schedule still attached to it, so the
// publish job can never pick up an orphaned schedule.
func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	owned, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotFound
	}

	sp, err := s.sp.GetByPostID(ctx, postID)
	if err != nil {
		return err
	}
	if sp != nil {
		if err := s.sp.Remove(ctx, sp.ID); err != nil {
			return err
		}
	}

	return s.pr.Remove(ctx, postID)
}
