package sources

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	apperrors "salesdash/internal/errors"
)

// Chain fetches from several sources concurrently and returns the payload
// of the first source, in configured order, that succeeded.
type Chain struct {
	sources []Source
	logger  *slog.Logger
}

// NewChain creates a chain over sources in priority order.
func NewChain(logger *slog.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{sources: sources, logger: logger.With(slog.String("component", "source_chain"))}
}

// Name implements Source.
func (c *Chain) Name() string { return "chain" }

// Sources returns the configured sources in priority order.
func (c *Chain) Sources() []Source { return c.sources }

// Fetch implements Source. When every source fails the error is
// ShapeMismatch if any source returned data of the wrong shape, otherwise
// SourceUnavailable. Both wrap every individual failure.
func (c *Chain) Fetch(ctx context.Context) (*Payload, error) {
	if len(c.sources) == 0 {
		return nil, apperrors.NewSourceUnavailableError("no sources configured", nil)
	}

	payloads := make([]*Payload, len(c.sources))
	errs := make([]error, len(c.sources))

	var g errgroup.Group
	for i, src := range c.sources {
		g.Go(func() error {
			payloads[i], errs[i] = src.Fetch(ctx)
			return nil
		})
	}
	_ = g.Wait()

	shapeFailure := false
	for i, src := range c.sources {
		if errs[i] == nil && payloads[i] != nil {
			if i > 0 {
				c.logger.WarnContext(ctx, "using fallback source",
					slog.String("source", src.Name()),
					slog.Int("priority", i))
			}
			return payloads[i], nil
		}
		if errs[i] != nil {
			c.logger.WarnContext(ctx, "source failed",
				slog.String("source", src.Name()),
				slog.String("error", errs[i].Error()))
			if apperrors.TypeOf(errs[i]) == apperrors.ErrTypeShapeMismatch {
				shapeFailure = true
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewSourceUnavailableError("fetch cancelled", errors.Join(err, errors.Join(errs...)))
	}
	if shapeFailure {
		return nil, apperrors.NewShapeMismatchError("no source returned usable rows", errors.Join(errs...))
	}
	return nil, apperrors.NewSourceUnavailableError("all sources failed", errors.Join(errs...))
}
