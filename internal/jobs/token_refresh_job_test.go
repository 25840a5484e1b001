package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/blogflow/internal/models"
	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

type refreshTrackingService struct {
	mu         sync.Mutex
	expiring   []*models.OAuthCredential
	refreshed  map[int64]int
	refreshErr map[int64]error
}

func newRefreshTrackingService(expiring ...*models.OAuthCredential) *refreshTrackingService {
	return &refreshTrackingService{
		expiring:   expiring,
		refreshed:  make(map[int64]int),
		refreshErr: make(map[int64]error),
	}
}

func (f *refreshTrackingService) GetValid(ctx context.Context, userID int64) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "access-1"}, nil
}

func (f *refreshTrackingService) Refresh(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed[userID]++
	return f.refreshErr[userID]
}

func (f *refreshTrackingService) SaveToken(ctx context.Context, userID int64, token *oauth2.Token) error {
	return nil
}

func (f *refreshTrackingService) ListExpiringWithin(ctx context.Context, window time.Duration) ([]*models.OAuthCredential, error) {
	return f.expiring, nil
}

func TestRefreshTokensRefreshesEveryListedCredential(t *testing.T) {
	now := time.Now()
	// well outside the lazy 5 minute window; the proactive pass must still
	// force a refresh for it
	cs := newRefreshTrackingService(
		&models.OAuthCredential{UserID: 7, ExpiresAt: now.Add(20 * time.Minute)},
		&models.OAuthCredential{UserID: 8, ExpiresAt: now.Add(3 * time.Minute)},
	)

	NewTokenRefreshJob(cs).RefreshTokens()

	assert.Equal(t, 1, cs.refreshed[7])
	assert.Equal(t, 1, cs.refreshed[8])
}

func TestRefreshTokensOneFailureDoesNotStopOthers(t *testing.T) {
	now := time.Now()
	cs := newRefreshTrackingService(
		&models.OAuthCredential{UserID: 7, ExpiresAt: now.Add(10 * time.Minute)},
		&models.OAuthCredential{UserID: 8, ExpiresAt: now.Add(10 * time.Minute)},
	)
	cs.refreshErr[7] = errors.New("invalid_grant")

	NewTokenRefreshJob(cs).RefreshTokens()

	assert.Equal(t, 1, cs.refreshed[7])
	assert.Equal(t, 1, cs.refreshed[8])
}
