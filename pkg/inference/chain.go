package inference

import (
	"context"
	"errors"
	"log/slog"
)

// Chain implements Provider by trying multiple providers in order.
// The first successful provider wins; if all fail, returns an aggregate
// error.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a provider chain that tries providers in order.
// At least one provider is required.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}

	return &Chain{
		providers: providers,
		logger:    slog.Default().With("component", "inference.chain"),
	}, nil
}

// Generate tries each provider until one succeeds.
func (c *Chain) Generate(ctx context.Context, req *Request) (*Response, error) {
	var errs []error

	for i, p := range c.providers {
		resp, err := p.Generate(ctx, req)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded", "provider_index", i)
			}
			return resp, nil
		}

		errs = append(errs, err)
		c.logger.Warn("provider failed, trying next",
			"provider_index", i,
			"error", err,
		)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, errors.Join(append([]error{ErrAllProvidersFailed}, errs...)...)
}

// Health returns nil if any provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Health(ctx); err == nil {
			return nil
		} else {
			errs = append(errs, err)
		}
	}
	return errors.Join(append([]error{ErrAllProvidersFailed}, errs...)...)
}

// Close closes all providers, returning the first error.
func (c *Chain) Close() error {
	var first error
	for _, p := range c.providers {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Verify Chain implements Provider at compile time.
var _ Provider = (*Chain)(nil)
