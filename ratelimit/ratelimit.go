// Package ratelimit throttles calls to a psagent.Provider with a token
// bucket, so an agent loop with several tool round trips stays within the
// API's per-minute request quota.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/psagent"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Defaults match the free-tier Gemini quota the agent was tuned for.
const (
	DefaultRequestsPerMinute = 4
	DefaultBurst             = 4
)

var _ psagent.Provider = (*Provider)(nil)

// Provider wraps another Provider and waits for a token before each Stream
// call.
type Provider struct {
	next    psagent.Provider
	limiter *rate.Limiter
}

// New wraps next with a limiter allowing perMinute requests per minute and
// bursts of burst. A non-positive perMinute disables limiting.
func New(next psagent.Provider, perMinute float64, burst int) *Provider {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &Provider{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Stream blocks until the limiter admits the request or ctx is done.
func (p *Provider) Stream(ctx context.Context, req psagent.Request) (psagent.Stream, error) {
	r := p.limiter.Reserve()
	if !r.OK() {
		return nil, fmt.Errorf("rate limit: request cannot be admitted")
	}
	if d := r.Delay(); d > 0 {
		logrus.WithField("wait", d.Round(time.Millisecond)).Info("rate limit reached, waiting")
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			r.Cancel()
			return nil, fmt.Errorf("rate limit: %w", ctx.Err())
		}
	}
	return p.next.Stream(ctx, req)
}
