package kyoku

import (
	"context"
	"time"
)

const (
	DefaultPollMin = 2 * time.Millisecond
	DefaultPollMax = 100 * time.Millisecond
)

// poller re-checks a condition with doubling sleeps capped at max.
type poller struct {
	min time.Duration
	max time.Duration
}

func newPoller(min, max time.Duration) poller {
	if min <= 0 {
		min = DefaultPollMin
	}
	if max < min {
		max = min
	}
	return poller{min: min, max: max}
}

func (p poller) until(ctx context.Context, done func() bool) error {
	delay := p.min
	for !done() {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if delay > p.max {
			delay = p.max
		}
	}
	return nil
}
