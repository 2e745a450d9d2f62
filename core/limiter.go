package core

import (
	"fmt"
	"sync"
)

// AttemptLimiter enforces a maximum number of model session attempts per run.
// The run loop continues until a termination marker or error otherwise; the
// limiter is the guard rail against a model that never signals completion.
type AttemptLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewAttemptLimiter creates a limiter allowing at most max attempts.
// If max == 0, attempts are unlimited.
func NewAttemptLimiter(max int) *AttemptLimiter {
	return &AttemptLimiter{max: max}
}

// Increment counts one attempt and returns an error if the limit is exceeded.
func (al *AttemptLimiter) Increment() error {
	al.mu.Lock()
	defer al.mu.Unlock()

	al.count++
	if al.max > 0 && al.count > al.max {
		return fmt.Errorf("exceeded max model attempts: %d", al.max)
	}

	return nil
}

// Count returns the number of attempts made so far.
func (al *AttemptLimiter) Count() int {
	al.mu.Lock()
	defer al.mu.Unlock()

	return al.count
}

// Remaining returns how many attempts are left before hitting the limit,
// or -1 when unlimited.
func (al *AttemptLimiter) Remaining() int {
	al.mu.Lock()
	defer al.mu.Unlock()

	if al.max == 0 {
		return -1
	}

	return al.max - al.count
}
