package core

// bulk_limiter.go bounds how many bulk validations run at once.
//
// A single bulk request can carry tens of thousands of codes and fans out
// across CPUs, so the web layer admits only a few at a time. Callers that
// cannot get a slot within maxWait receive ErrTooManyBulkJobs.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyBulkJobs is returned when every bulk slot stays busy for maxWait.
var ErrTooManyBulkJobs = errors.New("too many bulk validations in progress, please try again later")

// Defaults applied by NewBulkLimiter for non-positive arguments.
const (
	DefaultMaxConcurrentBulk = 4
	DefaultBulkMaxWait       = 10 * time.Second
)

// BulkLimiter is a counting semaphore with a bounded wait.
type BulkLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewBulkLimiter allows at most maxConcurrent holders at a time.
func NewBulkLimiter(maxConcurrent int, maxWait time.Duration) *BulkLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentBulk
	}
	if maxWait <= 0 {
		maxWait = DefaultBulkMaxWait
	}
	return &BulkLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire blocks until a slot is free, ctx is done, or maxWait elapses.
// Every successful Acquire must be paired with Release.
func (l *BulkLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyBulkJobs
	}
}

// Release frees a slot taken by Acquire.
func (l *BulkLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// BulkLimiterStatus is a point-in-time view of the limiter.
type BulkLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status reports current usage.
func (l *BulkLimiter) Status() BulkLimiterStatus {
	return BulkLimiterStatus{
		Active:        int(l.active.Load()),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}

// WaitForDrain blocks until no slot is held or ctx is done.
func (l *BulkLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.active.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
