// Package ratelimit bounds outbound calls to Codeforces: at most MaxConcurrent
// in flight, and successive starts spaced at least MinInterval apart.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type Config struct {
	MinInterval   time.Duration
	MaxConcurrent int
}

// DefaultConfig matches the upstream's informal tolerance: one call at a time,
// two seconds apart.
func DefaultConfig() Config {
	return Config{MinInterval: 2 * time.Second, MaxConcurrent: 1}
}

type Limiter struct {
	sem     *semaphore.Weighted
	spacing *rate.Limiter
}

func New(cfg Config) *Limiter {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &Limiter{
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		spacing: rate.NewLimiter(limit, 1),
	}
}

// Do runs fn once a slot is free and the spacing allows it. It returns
// ctx.Err() without calling fn if ctx ends first.
func (l *Limiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	if err := l.spacing.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

// Schedule is Do for functions that return a value.
func Schedule[T any](ctx context.Context, l *Limiter, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := l.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
