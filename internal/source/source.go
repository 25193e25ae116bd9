package source

import (
	"context"
	"errors"
	"time"

	"listingrelay/internal/domain"
)

// ErrSubscription marks a subscription that broke and will not recover
// on its own.
var ErrSubscription = errors.New("subscription failed")

// Source produces the live, ordered message feed of one source channel.
// Run blocks until ctx is cancelled, in which case it returns nil, or
// until the subscription breaks.
type Source interface {
	Run(ctx context.Context, out chan<- domain.Message) error
}

// emit hands msg to out, giving up when ctx is done.
func emit(ctx context.Context, out chan<- domain.Message, msg domain.Message) bool {
	select {
	case out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// wait sleeps for d and reports false if ctx ended first.
func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
