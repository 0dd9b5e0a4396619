package core

// limiter.go bounds how many generator processes run at once.
//
// Each submission holds a slot for the duration of its generator run. When
// all slots are taken, new submissions wait up to maxWait and then fail with
// ErrTooManySubmissions. WaitForDrain lets shutdown wait for running
// generators to finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManySubmissions is returned when no generator slot frees up within
// the wait time. Clients should retry after a short delay.
var ErrTooManySubmissions = errors.New("too many concurrent submissions, please try again later")

// DefaultMaxConcurrentGenerations is the default number of generator slots.
const DefaultMaxConcurrentGenerations = 2

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// GenerationLimiter is a counting semaphore over generator runs.
type GenerationLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewGenerationLimiter allows at most maxConcurrent simultaneous runs.
// Non-positive arguments select the defaults.
func NewGenerationLimiter(maxConcurrent int, maxWait time.Duration) *GenerationLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentGenerations
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &GenerationLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot. It returns ErrTooManySubmissions when maxWait
// elapses and ctx.Err() when ctx ends first. Callers must Release a slot
// they acquired.
func (l *GenerationLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own wait timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManySubmissions
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *GenerationLimiter) TryAcquire() bool {
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
func (l *GenerationLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of running generations.
func (l *GenerationLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *GenerationLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *GenerationLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no generation is running or ctx ends.
func (l *GenerationLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
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

// LimiterStatus is a snapshot of limiter state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status returns the current limiter state for health checks.
func (l *GenerationLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
