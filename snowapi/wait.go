package snowapi

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var (
	// ErrStillRunning is returned by Wait when maxElapsed passes before the
	// statement finishes.
	ErrStillRunning = errors.New("statement still running")
	// ErrStillPending is returned by Drain when maxElapsed passes before every
	// batch statement finishes.
	ErrStillPending = errors.New("batch statements still pending")
)

// DefaultBackOff is an exponential policy starting at 250ms and capped at 5s
// between polls.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}

// retryHint turns a rate-limit error into the delay backoff should honour.
func retryHint(err error) error {
	var rl *RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return backoff.RetryAfter(int(math.Ceil(rl.RetryAfter.Seconds())))
	}
	return err
}

// Wait polls the statement until it completes, fails or ctx ends. Delays
// between polls come from b, or DefaultBackOff when b is nil; a server
// Retry-After takes precedence. The total wait is bounded by maxElapsed, or
// by backoff's 15 minute default when maxElapsed is zero.
func (p *Pending) Wait(ctx context.Context, b backoff.BackOff, maxElapsed time.Duration) (*QueryResponse, error) {
	if b == nil {
		b = DefaultBackOff()
	}
	current := p
	op := func() (*QueryResponse, error) {
		out, err := current.Poll(ctx)
		if err != nil {
			if IsRetryable(err) {
				return nil, retryHint(err)
			}
			return nil, backoff.Permanent(err)
		}
		if !out.Done() {
			current = out.Pending
			return nil, ErrStillRunning
		}
		return out.Response, nil
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithNotify(func(err error, d time.Duration) {
			p.client.logger.DebugContext(ctx, "statement not ready", "handle", p.Handle(), "reason", err, "next_poll", d)
		}),
	}
	if maxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(maxElapsed))
	}
	return backoff.Retry(ctx, op, opts...)
}

// Drain calls Complete until every statement has finished, handing each
// completed entry to visit in polling order. A visit error or a transport
// failure stops draining.
func (b *Batch) Drain(ctx context.Context, bo backoff.BackOff, maxElapsed time.Duration, visit func(DrainEntry) error) error {
	if bo == nil {
		bo = DefaultBackOff()
	}
	op := func() (struct{}, error) {
		round, err := b.Complete(ctx)
		for _, e := range round.Completed() {
			if verr := visit(e); verr != nil {
				return struct{}{}, backoff.Permanent(verr)
			}
		}
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if b.AreAllComplete() {
			return struct{}{}, nil
		}
		var hint time.Duration
		for _, e := range round.Retryable() {
			var rl *RateLimitedError
			if errors.As(e.Err, &rl) && rl.RetryAfter > hint {
				hint = rl.RetryAfter
			}
		}
		if hint > 0 {
			return struct{}{}, backoff.RetryAfter(int(math.Ceil(hint.Seconds())))
		}
		return struct{}{}, ErrStillPending
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithNotify(func(err error, d time.Duration) {
			b.client.logger.DebugContext(ctx, "batch not drained", "pending", len(b.pending), "next_round", d)
		}),
	}
	if maxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(maxElapsed))
	}
	_, err := backoff.Retry(ctx, op, opts...)
	return err
}
