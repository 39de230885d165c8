package riot

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Dev key limits are 20/s and 100/2min, kept below for safety
	defaultRequestsPerSecond = 15
	defaultRequestsPer2Min   = 90
)

// limiter paces requests against both dev key windows
type limiter struct {
	short *rate.Limiter
	long  *rate.Limiter
}

// newLimiter builds a two-window limiter. A non-positive count disables that window.
func newLimiter(perSecond, per2Min int) *limiter {
	return &limiter{
		short: windowLimiter(perSecond, time.Second),
		long:  windowLimiter(per2Min, 2*time.Minute),
	}
}

func windowLimiter(n int, window time.Duration) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(n)), n)
}

// Wait blocks until both windows allow another request or ctx is done
func (l *limiter) Wait(ctx context.Context) error {
	if err := l.short.Wait(ctx); err != nil {
		return err
	}
	return l.long.Wait(ctx)
}
