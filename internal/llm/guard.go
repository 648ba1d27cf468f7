package llm

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"docanalyzer/internal/logger"
	"docanalyzer/internal/metrics"
)

// Guarded wraps a Completer with a per-call timeout, optional request pacing
// and request metrics.
type Guarded struct {
	next    Completer
	name    string
	timeout time.Duration
	limiter *rate.Limiter
}

// Guard wraps next. A zero timeout disables the deadline; rps <= 0 disables pacing.
func Guard(next Completer, name string, timeout time.Duration, rps float64, burst int) *Guarded {
	g := &Guarded{next: next, name: name, timeout: timeout}
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return g
}

func (g *Guarded) Complete(ctx context.Context, req Request) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			metrics.LLMRequests.WithLabelValues(g.name, "throttled").Inc()
			return "", fmt.Errorf("%s rate limit wait: %w", g.name, err)
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.next.Complete(ctx, req)
	elapsed := time.Since(start)
	metrics.LLMDuration.WithLabelValues(g.name).Observe(elapsed.Seconds())

	if err != nil {
		metrics.LLMRequests.WithLabelValues(g.name, "error").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%s request timed out after %s: %w", g.name, g.timeout, err)
		}
		return "", err
	}

	metrics.LLMRequests.WithLabelValues(g.name, "success").Inc()
	logger.Debug("completion finished",
		zap.String("provider", g.name),
		zap.Duration("elapsed", elapsed),
		zap.Int("max_tokens", req.MaxTokens),
		zap.Int("response_chars", len(out)),
	)
	return out, nil
}

// Close releases the wrapped provider when it holds a client.
func (g *Guarded) Close() error {
	if c, ok := g.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
