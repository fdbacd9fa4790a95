// Package period maps symbolic lookback tokens to the start of a query window.
package period

import (
	"errors"
	"time"
)

// ErrInvalidPeriod is returned for tokens outside the supported vocabulary.
var ErrInvalidPeriod = errors.New("invalid period")

// Supported tokens.
const (
	Last24Hours = "24h"
	Last48Hours = "48h"
	LastWeek    = "1w"
	LastMonth   = "1m"

	// Default is used when a request omits the period.
	Default = Last24Hours
)

// A month is a fixed 30 days, not calendar arithmetic.
var durations = map[string]time.Duration{
	Last24Hours: 24 * time.Hour,
	Last48Hours: 48 * time.Hour,
	LastWeek:    7 * 24 * time.Hour,
	LastMonth:   30 * 24 * time.Hour,
}

// Tokens lists the supported tokens from shortest to longest window.
func Tokens() []string {
	return []string{Last24Hours, Last48Hours, LastWeek, LastMonth}
}

// Duration returns the fixed lookback length of token.
func Duration(token string) (time.Duration, error) {
	d, ok := durations[token]
	if !ok {
		return 0, ErrInvalidPeriod
	}
	return d, nil
}

// Resolver turns tokens into absolute UTC window starts.
type Resolver struct {
	now func() time.Time
}

// NewResolver returns a Resolver reading the clock from now. A nil clock uses time.Now.
func NewResolver(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{now: now}
}

// Resolve returns now - Duration(token) in UTC. The clock is read exactly once.
func (r *Resolver) Resolve(token string) (time.Time, error) {
	d, err := Duration(token)
	if err != nil {
		return time.Time{}, err
	}
	return r.now().UTC().Add(-d), nil
}
