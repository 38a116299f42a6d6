package deadline

import (
	"errors"
	"time"
)

// ErrInvalidParams is returned when evaluator thresholds are inconsistent.
var ErrInvalidParams = errors.New("invalid deadline evaluation parameters")

// Params defines the thresholds used to classify deadlines.
type Params struct {
	// ApproachingWindow is how far ahead of now a deadline counts as approaching.
	ApproachingWindow time.Duration

	// UrgentWithin raises approaching events to medium priority when the
	// remaining time is at most this long.
	UrgentWithin time.Duration
}

// DefaultParams returns the standard thresholds: a 24 hour window with
// medium priority inside the last 12 hours.
func DefaultParams() Params {
	return Params{
		ApproachingWindow: 24 * time.Hour,
		UrgentWithin:      12 * time.Hour,
	}
}

// Validate checks that both thresholds are positive and the urgent
// threshold fits inside the window.
func (p Params) Validate() error {
	if p.ApproachingWindow <= 0 || p.UrgentWithin <= 0 {
		return ErrInvalidParams
	}
	if p.UrgentWithin > p.ApproachingWindow {
		return ErrInvalidParams
	}
	return nil
}
