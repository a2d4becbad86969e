package utils

import (
	"context"
	"math/rand"
	"time"
)

// Sleeper injects the politeness delays used between outbound requests and
// between SMTP retry attempts. The delays are an anti-abuse contract with the
// target servers, not a tunable performance knob; tests swap in NopSleeper to
// stay fast without changing production pacing.
type Sleeper interface {
	// Sleep pauses for a randomized politeness interval.
	Sleep(ctx context.Context)
	// Backoff pauses before retry number attempt (1-based); successive delays
	// are monotonically non-decreasing to ride out greylisting.
	Backoff(ctx context.Context, attempt int)
}

type randomSleeper struct {
	min time.Duration
	max time.Duration
}

func newRandomSleeper(min, max time.Duration) *randomSleeper {
	if max < min {
		max = min
	}
	return &randomSleeper{min: min, max: max}
}

func (s *randomSleeper) Sleep(ctx context.Context) {
	d := s.min
	if s.max > s.min {
		d = s.min + time.Duration(rand.Int63n(int64(s.max-s.min)))
	}
	sleepCtx(ctx, d)
}

func (s *randomSleeper) Backoff(ctx context.Context, attempt int) {
	if attempt < 1 {
		attempt = 1
	}
	sleepCtx(ctx, time.Duration(attempt)*s.max)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// NopSleeper disables all pacing. Test use only.
type NopSleeper struct{}

func (NopSleeper) Sleep(context.Context)        {}
func (NopSleeper) Backoff(context.Context, int) {}
