// Package system provides a real clock implementation.
package system

import "time"

// Clock implements spider.Clock using time.Now. It keeps the local
// location because the schedule window is a local time-of-day range.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current local time.
func (Clock) Now() time.Time {
	return time.Now()
}
