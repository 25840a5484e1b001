package service

import (
	"errors"
	"fmt"
)

// Errors surfaced synchronously to API callers. These are never retried by
// the publish job.
var (
	ErrPastTime       = errors.New("scheduled time must be in the future")
	ErrCompleted      = errors.New("schedule already completed")
	ErrRetryExhausted = errors.New("retry attempts exhausted")
	ErrRetryNotFailed = errors.New("only failed schedules can be retried")
	ErrScheduleExists = errors.New("post already has an active schedule")
	ErrNotFound       = errors.New("not found")
)

// ErrNoCredential means the account never connected Blogger. A publish
// attempt against it fails but stays retryable once the user re-authenticates.
var ErrNoCredential = errors.New("no credential for account")

// RefreshError wraps a failed token refresh. The publish job treats it as a
// transient per-record failure, not a permanent one.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("failed to refresh oauth token: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// PublishError wraps any transport or API failure from Blogger. Op is
// "create" or "update".
type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("blogger %s failed: %v", e.Op, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
