package service

import (
	"context"
	"log/slog"
	"time"

	config "github.com/maheshrc27/blogflow/configs"
	"github.com/maheshrc27/blogflow/internal/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/blogger/v3"
	"google.golang.org/api/option"
)

type BloggerService interface {
	// Publish creates the post on Blogger, or updates it when the post
	// already carries a blogger post id. Returns the remote post id. A retry
	// for a post that was created once always routes to update, so it can
	// never produce a duplicate remote document.
	Publish(ctx context.Context, post *models.Post, token *oauth2.Token) (string, error)
}

type bloggerService struct {
	cfg     config.Config
	timeout time.Duration

	// endpoint overrides the Blogger API base URL in tests.
	endpoint string
}

func NewBloggerService(cfg config.Config) BloggerService {
	timeout := time.Duration(cfg.PublishTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &bloggerService{
		cfg:     cfg,
		timeout: timeout,
	}
}

func (s *bloggerService) Publish(ctx context.Context, post *models.Post, token *oauth2.Token) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	svc, err := s.newService(ctx, token)
	if err != nil {
		slog.Info(err.Error())
		return "", &PublishError{Op: "create", Err: err}
	}

	blogPost := &blogger.Post{
		Title:   post.Title,
		Content: post.Content,
	}

	if post.BloggerPostID == "" {
		created, err := svc.Posts.Insert(s.cfg.BloggerBlogID, blogPost).Context(ctx).Do()
		if err != nil {
			slog.Info(err.Error())
			return "", &PublishError{Op: "create", Err: err}
		}
		return created.Id, nil
	}

	if _, err := svc.Posts.Update(s.cfg.BloggerBlogID, post.BloggerPostID, blogPost).Context(ctx).Do(); err != nil {
		slog.Info(err.Error())
		return "", &PublishError{Op: "update", Err: err}
	}
	return post.BloggerPostID, nil
}

func (s *bloggerService) newService(ctx context.Context, token *oauth2.Token) (*blogger.Service, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}

	return blogger.NewService(ctx, opts...)
}
