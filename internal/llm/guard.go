package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Guarded bounds every call with a timeout and a token bucket. Any failure,
// including an empty answer, is reported as ErrCognitionUnavailable.
type Guarded struct {
	inner   domain.CognitionClient
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewGuarded wraps inner. rps <= 0 disables rate limiting.
func NewGuarded(inner domain.CognitionClient, timeout time.Duration, rps float64, burst int, logger *zap.Logger) *Guarded {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &Guarded{
		inner:   inner,
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

func (g *Guarded) Propose(ctx context.Context, pc domain.PromptContext) (string, error) {
	if !g.limiter.Allow() {
		return "", fmt.Errorf("%w: rate limited", domain.ErrCognitionUnavailable)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.inner.Propose(ctx, pc)
	if err != nil {
		g.logger.Warn("cognition unavailable",
			zap.String("kind", string(pc.Kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", domain.ErrCognitionUnavailable, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrCognitionUnavailable)
	}
	g.logger.Debug("cognition answered",
		zap.String("kind", string(pc.Kind)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(text)),
	)
	return text, nil
}
