package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage   = "send_message"
	ActionOfferHelp     = "offer_help"
	ActionCreateRequest = "create_request"
	ActionAPI           = "api"
)

// Policy allows Burst events at once, refilled one every Every.
type Policy struct {
	Every time.Duration
	Burst int
}

// PerMinute spreads n events evenly over a minute with a burst of n.
func PerMinute(n int) Policy {
	if n <= 0 {
		n = 1
	}
	return Policy{Every: time.Minute / time.Duration(n), Burst: n}
}

var defaultPolicy = PerMinute(20)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key and action.
type RateLimiter struct {
	policies map[string]Policy
	limiters map[string]*limiterEntry
	mutex    sync.Mutex
	now      func() time.Time
}

func NewRateLimiter(policies map[string]Policy) *RateLimiter {
	p := make(map[string]Policy, len(policies))
	for action, policy := range policies {
		p[action] = policy
	}
	return &RateLimiter{
		policies: p,
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

// DefaultPolicies returns the limits used by the API server.
func DefaultPolicies(sendPerMinute, apiPerMinute int) map[string]Policy {
	return map[string]Policy{
		ActionSendMessage:   PerMinute(sendPerMinute),
		ActionOfferHelp:     {Every: 2 * time.Minute, Burst: 5},
		ActionCreateRequest: {Every: 5 * time.Minute, Burst: 5},
		ActionAPI:           PerMinute(apiPerMinute),
	}
}

// Allow consumes a token for key/action when one is available. Otherwise it reports how long the
// caller has to wait and consumes nothing.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	limiter := rl.limiter(key, action)
	now := rl.now()

	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0
	}
	delay := reservation.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	reservation.CancelAt(now)
	return false, delay
}

func (rl *RateLimiter) limiter(key, action string) *rate.Limiter {
	id := key + ":" + action

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	entry, ok := rl.limiters[id]
	if !ok {
		policy, ok := rl.policies[action]
		if !ok {
			policy = defaultPolicy
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(policy.Every), policy.Burst)}
		rl.limiters[id] = entry
	}
	entry.lastSeen = rl.now()
	return entry.limiter
}

// Cleanup drops buckets idle for longer than maxIdle. A dropped bucket starts full again.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	removed := 0
	for id, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > maxIdle {
			delete(rl.limiters, id)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine runs Cleanup every 30 minutes until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}
