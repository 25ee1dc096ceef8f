package middleware

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a member exceeds the allowed call rate.
var ErrRateLimited = errors.New("too many requests, slow down")

// RateLimiter keeps one token bucket per member for a set of procedures.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	rate       rate.Limit
	burst      int
	procedures map[string]bool
}

// NewRateLimiter creates a limiter allowing perSecond calls with the given burst
// for each member. Only the listed procedures are limited.
func NewRateLimiter(perSecond float64, burst int, procedures ...string) *RateLimiter {
	procs := make(map[string]bool, len(procedures))
	for _, p := range procedures {
		procs[p] = true
	}
	return &RateLimiter{
		limiters:   make(map[string]*rate.Limiter),
		rate:       rate.Limit(perSecond),
		burst:      burst,
		procedures: procs,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Allow reports whether key may make another call now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Interceptor returns a Connect interceptor enforcing the limit.
// Calls without an authenticated member are keyed by peer address.
func (rl *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			if !rl.procedures[procedure] {
				return next(ctx, req)
			}

			key := GetMemberID(ctx)
			if key == "" {
				key = req.Peer().Addr
			}

			if !rl.Allow(key) {
				slog.Warn("Rate limit exceeded", "procedure", procedure, "key", key)
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}
