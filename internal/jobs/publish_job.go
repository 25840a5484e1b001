package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/blogflow/internal/models"
	"github.com/maheshrc27/blogflow/internal/repository"
	"github.com/maheshrc27/blogflow/internal/service"
	"golang.org/x/oauth2"
)

// EventSink receives publish outcome events for user-facing delivery.
type EventSink interface {
	Dispatch(ctx context.Context, ev *models.OutcomeEvent) error
}

type PublishJob struct {
	sp      repository.ScheduledPostRepository
	pr      repository.PostRepository
	cs      service.CredentialService
	bs      service.BloggerService
	sink    EventSink
	now     func() time.Time
	workers int

	// passMu is the single-flight guard: a pass that fires while the
	// previous one is still running is skipped, never queued.
	passMu sync.Mutex
}

func NewPublishJob(
	sp repository.ScheduledPostRepository,
	pr repository.PostRepository,
	cs service.CredentialService,
	bs service.BloggerService,
	sink EventSink,
	workers int) *PublishJob {
	if workers <= 0 {
		workers = 5
	}
	return &PublishJob{
		sp:      sp,
		pr:      pr,
		cs:      cs,
		bs:      bs,
		sink:    sink,
		now:     time.Now,
		workers: workers,
	}
}

// Run is the cron entrypoint.
func (j *PublishJob) Run() {
	if _, err := j.RunOnce(context.Background(), j.now()); err != nil {
		slog.Error(err.Error())
	}
}

// RunOnce executes one publish pass: query due schedules, publish each one,
// write the outcome back and dispatch outcome events. Records of different
// users are processed in parallel up to the worker limit; records of the
// same user run sequentially in due order, reusing a single resolved
// credential for the whole lane. One record's failure never aborts the pass.
func (j *PublishJob) RunOnce(ctx context.Context, now time.Time) ([]*models.OutcomeEvent, error) {
	if !j.passMu.TryLock() {
		slog.Info("publish pass still running, skipping")
		return nil, nil
	}
	defer j.passMu.Unlock()

	due, err := j.sp.ListDue(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return nil, nil
	}

	// One lane per user, keeping the oldest-due-first order inside a lane.
	laneIndex := make(map[int64]int)
	var lanes [][]*models.ScheduledPost
	for _, sp := range due {
		i, ok := laneIndex[sp.UserID]
		if !ok {
			i = len(lanes)
			laneIndex[sp.UserID] = i
			lanes = append(lanes, nil)
		}
		lanes[i] = append(lanes[i], sp)
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, j.workers)

	var mu sync.Mutex
	var events []*models.OutcomeEvent

	for _, lane := range lanes {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(lane []*models.ScheduledPost) {
			defer wg.Done()
			defer func() { <-semaphore }()

			var cached *oauth2.Token
			for _, sp := range lane {
				ev, token := j.processOne(ctx, sp, now, cached)
				if token != nil {
					cached = token
				}
				mu.Lock()
				events = append(events, ev)
				mu.Unlock()
			}
		}(lane)
	}

	wg.Wait()

	for _, ev := range events {
		if err := j.sink.Dispatch(ctx, ev); err != nil {
			slog.Info(err.Error())
		}
	}

	return events, nil
}

func (j *PublishJob) processOne(ctx context.Context, sp *models.ScheduledPost, now time.Time, cached *oauth2.Token) (*models.OutcomeEvent, *oauth2.Token) {
	post, err := j.pr.GetByID(ctx, sp.PostID)
	if err != nil {
		return j.fail(ctx, sp, nil, err.Error(), now), nil
	}
	if post == nil {
		return j.fail(ctx, sp, nil, "post not found", now), nil
	}

	token := cached
	if token == nil {
		token, err = j.cs.GetValid(ctx, sp.UserID)
		if err != nil {
			return j.fail(ctx, sp, post, reasonFor(err), now), nil
		}
	}

	bloggerPostID, err := j.bs.Publish(ctx, post, token)
	if err != nil {
		return j.fail(ctx, sp, post, reasonFor(err), now), token
	}

	if err := j.pr.SetPublished(ctx, post.ID, bloggerPostID, now); err != nil {
		slog.Error(err.Error())
	}

	applied, err := j.sp.MarkCompleted(ctx, sp.ID, now)
	if err != nil {
		slog.Error(err.Error())
	}
	if !applied {
		// The schedule was cancelled while the publish was in flight. The
		// remote post exists, so the outcome is still reported.
		slog.Info("schedule removed during publish, completion not recorded")
	}

	return &models.OutcomeEvent{
		ScheduleID: sp.ID,
		PostID:     post.ID,
		UserID:     sp.UserID,
		PostTitle:  post.Title,
		Outcome:    models.OutcomeSuccess,
		Timestamp:  now,
	}, token
}

func (j *PublishJob) fail(ctx context.Context, sp *models.ScheduledPost, post *models.Post, reason string, now time.Time) *models.OutcomeEvent {
	applied, err := j.sp.MarkFailed(ctx, sp.ID, reason, now)
	if err != nil {
		slog.Error(err.Error())
	}

	// Once the attempt budget is burned the post itself is surfaced as
	// failed; earlier attempts leave it untouched.
	if applied && post != nil && sp.AttemptCount+1 >= models.MaxAttempts {
		if err := j.pr.UpdatePostStatus(ctx, models.PostStatusFailed, post.ID); err != nil {
			slog.Error(err.Error())
		}
	}

	ev := &models.OutcomeEvent{
		ScheduleID: sp.ID,
		PostID:     sp.PostID,
		UserID:     sp.UserID,
		Outcome:    models.OutcomeFailure,
		Reason:     reason,
		Timestamp:  now,
	}
	if post != nil {
		ev.PostTitle = post.Title
	}
	return ev
}

// reasonFor strips the adapter wrapping so failure reasons stay readable in
// the schedule row ("timeout" rather than the full wrapped chain).
func reasonFor(err error) string {
	var pe *service.PublishError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	var re *service.RefreshError
	if errors.As(err, &re) {
		return re.Err.Error()
	}
	return err.Error()
}
