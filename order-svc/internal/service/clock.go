package service

import (
	"time"

	"lunchbox/order-svc/internal/domain"
)

// Clock is the single source of "now" for reconciliation and payment sessions.
type Clock interface {
	Now() time.Time
}

// SystemClock reads wall-clock time in the restaurant's time zone.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

func Today(c Clock) string {
	return c.Now().Format(domain.DateLayout)
}
