package service

import (
	"context"
	"time"

	"github.com/keyfold/keyfold/internal/auth/domain"
	"github.com/keyfold/keyfold/internal/auth/store"
)

// Rate window names, used both as counter key segments and in response
// headers.
const (
	WindowMinute = "minute"
	WindowHour   = "hour"
	WindowDay    = "day"
)

var windowDurations = map[string]time.Duration{
	WindowMinute: time.Minute,
	WindowHour:   time.Hour,
	WindowDay:    24 * time.Hour,
}

// RateDecision is the outcome of a limiter check for one request.
//
// Window, Limit, and Remaining describe the exhausted window on denial and
// the tightest enabled window on success, so the gateway can stamp quota
// headers either way. The per-window counts include this request; windows
// after an exhausted one are not counted and stay zero.
type RateDecision struct {
	Allowed bool

	Window     string
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration

	MinuteCount int64
	HourCount   int64
	DayCount    int64
}

func (d *RateDecision) setCount(window string, count int64) {
	switch window {
	case WindowMinute:
		d.MinuteCount = count
	case WindowHour:
		d.HourCount = count
	case WindowDay:
		d.DayCount = count
	}
}

// RateLimitService enforces per-token fixed-window limits at the gateway.
// Windows are aligned to wall-clock boundaries, not the first request, so a
// token's minute window always spans :00 to :59 of the same minute.
type RateLimitService struct {
	Store *store.Store

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

// Check counts this request against the token's minute, hour, and day
// windows, in that order, and stops at the first exhausted one. A limit of
// zero or below disables that window. The counter keys embed the window's
// start instant, so two requests in different windows can never collide on a
// key, and the KV TTL retires each counter when its window ends.
func (s *RateLimitService) Check(ctx context.Context, token domain.APIToken) (RateDecision, error) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	checks := []struct {
		window string
		limit  int64
	}{
		{WindowMinute, token.LimitPerMinute},
		{WindowHour, token.LimitPerHour},
		{WindowDay, token.LimitPerDay},
	}

	var decision RateDecision
	for _, c := range checks {
		if c.limit <= 0 {
			continue
		}

		dur := windowDurations[c.window]
		windowStart := now.Truncate(dur)
		count, err := s.Store.RateCounters().Incr(ctx, token.ID, c.window, windowStart, dur)
		if err != nil {
			return RateDecision{}, err
		}
		decision.setCount(c.window, count)

		if count > c.limit {
			decision.Allowed = false
			decision.Window = c.window
			decision.Limit = c.limit
			decision.Remaining = 0
			decision.RetryAfter = windowStart.Add(dur).Sub(now)
			return decision, nil
		}

		// The first enabled window is the tightest; report quota against it.
		if decision.Window == "" {
			decision.Window = c.window
			decision.Limit = c.limit
			decision.Remaining = c.limit - count
		}
	}

	decision.Allowed = true
	return decision, nil
}
