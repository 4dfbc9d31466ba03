package web

// limiter.go bounds the number of reconstructions running at once.
//
// Reconstruction itself is cheap, but a request may carry a page image for
// OCR rescanning, and Tesseract holds a lot of memory per call. When all slots
// are taken, new requests wait up to maxWait before failing with
// ErrTooManyScans. WaitForDrain lets shutdown wait for in-flight scans.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyScans is returned when no slot frees up within the wait time.
var ErrTooManyScans = errors.New("too many concurrent scans, please try again later")

// DefaultMaxConcurrentScans is used when the configured limit is not positive.
const DefaultMaxConcurrentScans = 8

// DefaultMaxScanWait is used when the configured wait is not positive.
const DefaultMaxScanWait = 10 * time.Second

// ScanLimiter is a counting semaphore over reconstruction requests.
type ScanLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewScanLimiter allows at most maxConcurrent scans at a time.
func NewScanLimiter(maxConcurrent int, maxWait time.Duration) *ScanLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentScans
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxScanWait
	}

	return &ScanLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. The caller must Release the
// slot once done.
func (l *ScanLimiter) Acquire(ctx context.Context) error {
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
		return ErrTooManyScans
	}
}

// TryAcquire takes a slot if one is free and reports whether it did.
func (l *ScanLimiter) TryAcquire() bool {
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

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ScanLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of scans in progress.
func (l *ScanLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *ScanLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *ScanLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no scan is active or ctx is done.
func (l *ScanLimiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// ScanLimiterStatus is a point-in-time view of the limiter.
type ScanLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status returns the limiter's current state.
func (l *ScanLimiter) Status() ScanLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return ScanLimiterStatus{
		Active:        active,
		Available:     l.Available(),
		MaxConcurrent: cap(l.semaphore),
	}
}
