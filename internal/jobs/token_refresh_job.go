package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/blogflow/internal/service"
)

type TokenRefreshJob struct {
	cs service.CredentialService
}

func NewTokenRefreshJob(cs service.CredentialService) *TokenRefreshJob {
	return &TokenRefreshJob{cs: cs}
}

// RefreshTokens proactively refreshes credentials expiring within the next
// 30 minutes so most publish passes find a live token. Refresh serializes
// per account, so a publish pass racing this job still refreshes once.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	creds, err := c.cs.ListExpiringWithin(ctx, 30*time.Minute)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, cred := range creds {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(userID int64) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := c.cs.Refresh(ctx, userID); err != nil {
				slog.Info("unable to refresh token: " + err.Error())
			}
		}(cred.UserID)
	}

	wg.Wait()
}
