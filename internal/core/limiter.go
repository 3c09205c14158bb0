package core

// limiter.go bounds how many conversions run at once.
//
// The limiter is a semaphore: when all slots are occupied, new requests wait
// up to maxWait before failing with ErrTooManyConversions. WaitForDrain lets
// a shutting-down server wait for in-flight conversions.

import (
	"context"
	"sync"
	"time"
)

// ErrTooManyConversions is returned when all slots are occupied and the wait
// timeout expires. Clients should retry after a short delay.
var ErrTooManyConversions = NewCodedError("CONV001", "too many concurrent conversions, please try again later")

// DefaultMaxConcurrent is the default limit for parallel conversions.
const DefaultMaxConcurrent = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 10 * time.Second

// ConversionLimiter controls concurrent conversions using a semaphore.
type ConversionLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewConversionLimiter creates a limiter allowing at most maxConcurrent
// simultaneous conversions. Non-positive arguments select the defaults.
func NewConversionLimiter(maxConcurrent int, maxWait time.Duration) *ConversionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ConversionLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot. Returns ErrTooManyConversions if none frees up
// within maxWait, or ctx's error if ctx ends first.
// The caller MUST call Release when done.
func (l *ConversionLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyConversions
	}
}

// TryAcquire takes a slot without blocking. Returns false if none is free.
func (l *ConversionLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *ConversionLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of running conversions.
func (l *ConversionLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *ConversionLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no conversion is running or ctx is done.
func (l *ConversionLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter's state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *ConversionLimiter) Status() LimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return LimiterStatus{
		Active:        active,
		Available:     l.Available(),
		MaxConcurrent: cap(l.semaphore),
	}
}
