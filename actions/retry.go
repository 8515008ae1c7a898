package actions

import (
	"context"
	"log/slog"

	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/pkg/retry"
)

// Retrying decorates a Resolver with backoff on transient failures.
// Invalid and fatal errors pass through on the first attempt.
type Retrying struct {
	inner  Resolver
	cfg    retry.Config
	logger *slog.Logger
}

// NewRetrying wraps a resolver with the given retry configuration. A zero
// config gets the package defaults.
func NewRetrying(inner Resolver, cfg retry.Config, logger *slog.Logger) *Retrying {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{inner: inner, cfg: cfg, logger: logger.With("component", "RetryingResolver")}
}

// Resolve implements Resolver.
func (r *Retrying) Resolve(ctx context.Context, action string, args map[string]any) (any, error) {
	return retry.DoWithResult(ctx, r.cfg, func() (any, error) {
		out, err := r.inner.Resolve(ctx, action, args)
		if err != nil && !errors.IsTransient(err) {
			return nil, retry.NonRetryable(err)
		}
		if err != nil {
			r.logger.Warn("action failed, will retry", "action", action, "error", err)
		}
		return out, err
	})
}
