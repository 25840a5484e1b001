package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	config "github.com/maheshrc27/blogflow/configs"
	"github.com/maheshrc27/blogflow/internal/models"
	"github.com/maheshrc27/blogflow/internal/repository"
	"github.com/maheshrc27/blogflow/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const BloggerScope = "https://www.googleapis.com/auth/blogger"

// refreshWindow is the safety margin before expiry within which a token is
// refreshed instead of used as-is.
const refreshWindow = 5 * time.Minute

type CredentialService interface {
	// GetValid returns a live decrypted token for the user, refreshing it
	// first when it is inside the expiry window. Returns ErrNoCredential when
	// the user never connected Blogger and *RefreshError when the refresh
	// itself fails.
	GetValid(ctx context.Context, userID int64) (*oauth2.Token, error)
	// Refresh exchanges the stored refresh token unconditionally, regardless
	// of how much lifetime the current access token has left.
	Refresh(ctx context.Context, userID int64) error
	SaveToken(ctx context.Context, userID int64, token *oauth2.Token) error
	ListExpiringWithin(ctx context.Context, window time.Duration) ([]*models.OAuthCredential, error)
}

// tokenRefresher exchanges a refresh token for a fresh access token.
type tokenRefresher func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

type credentialService struct {
	cfg     config.Config
	cr      repository.CredentialRepository
	now     func() time.Time
	refresh tokenRefresher

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewCredentialService(cfg config.Config, cr repository.CredentialRepository) CredentialService {
	s := &credentialService{
		cfg:   cfg,
		cr:    cr,
		now:   time.Now,
		locks: make(map[int64]*sync.Mutex),
	}
	s.refresh = s.refreshWithGoogle
	return s
}

func (s *credentialService) GetValid(ctx context.Context, userID int64) (*oauth2.Token, error) {
	cred, err := s.cr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		slog.Info(ErrNoCredential.Error())
		return nil, ErrNoCredential
	}

	if !cred.ExpiresWithin(s.now(), refreshWindow) {
		return s.decrypt(cred)
	}

	// Refresh is serialized per user; concurrent refreshes for the same
	// account would race on the stored row.
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read: another caller may have refreshed while we waited on the lock.
	cred, err = s.cr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNoCredential
	}
	if !cred.ExpiresWithin(s.now(), refreshWindow) {
		return s.decrypt(cred)
	}

	return s.refreshLocked(ctx, userID, cred)
}

func (s *credentialService) Refresh(ctx context.Context, userID int64) error {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	cred, err := s.cr.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if cred == nil {
		slog.Info(ErrNoCredential.Error())
		return ErrNoCredential
	}

	_, err = s.refreshLocked(ctx, userID, cred)
	return err
}

// refreshLocked exchanges the stored refresh token and persists the result.
// The caller must hold the per-user lock.
func (s *credentialService) refreshLocked(ctx context.Context, userID int64, cred *models.OAuthCredential) (*oauth2.Token, error) {
	refreshToken, err := utils.Decrypt(cred.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	token, err := s.refresh(ctx, refreshToken)
	if err != nil {
		slog.Info(err.Error())
		return nil, &RefreshError{Err: err}
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	var encryptedRefreshToken string
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		encryptedRefreshToken, err = utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return nil, err
		}
	}

	updated := &models.OAuthCredential{
		AccessToken:  encryptedAccessToken,
		RefreshToken: encryptedRefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if err := s.cr.SetToken(ctx, userID, cred.AccessToken, updated); err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   cred.TokenType,
		Expiry:      token.Expiry,
	}, nil
}

func (s *credentialService) SaveToken(ctx context.Context, userID int64, token *oauth2.Token) error {
	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	var encryptedRefreshToken string
	if token.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	_, err = s.cr.Upsert(ctx, &models.OAuthCredential{
		UserID:       userID,
		AccessToken:  encryptedAccessToken,
		RefreshToken: encryptedRefreshToken,
		TokenType:    tokenType,
		ExpiresAt:    token.Expiry,
	})
	return err
}

func (s *credentialService) ListExpiringWithin(ctx context.Context, window time.Duration) ([]*models.OAuthCredential, error) {
	return s.cr.ListExpiringWithin(ctx, s.now(), window)
}

func (s *credentialService) decrypt(cred *models.OAuthCredential) (*oauth2.Token, error) {
	accessToken, err := utils.Decrypt(cred.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   cred.TokenType,
		Expiry:      cred.ExpiresAt,
	}, nil
}

func (s *credentialService) lockFor(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *credentialService) refreshWithGoogle(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	conf := &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		Scopes:       []string{BloggerScope},
		Endpoint:     google.Endpoint,
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return token, nil
}
