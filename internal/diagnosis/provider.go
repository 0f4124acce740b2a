package diagnosis

import (
	"context"

	"go.uber.org/zap"
)

// Provider produces a diagnosis result for a request.
type Provider interface {
	Diagnose(ctx context.Context, req Request) (*Result, error)
	Source() Source
}

// CatalogProvider answers from the local catalog and never fails.
type CatalogProvider struct {
	scorer *Scorer
}

func NewCatalogProvider(scorer *Scorer) *CatalogProvider {
	return &CatalogProvider{scorer: scorer}
}

func (p *CatalogProvider) Diagnose(_ context.Context, req Request) (*Result, error) {
	r := p.scorer.Score(req.Symptoms)
	return &r, nil
}

func (p *CatalogProvider) Source() Source {
	return SourceCatalog
}

// Outcome is a result together with the provider that produced it.
// Degraded is set when the primary provider failed.
type Outcome struct {
	Result   Result
	Source   Source
	Degraded bool
}

// FallbackProvider tries Primary and substitutes Secondary on any error.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
	logger    *zap.Logger
}

// NewFallbackProvider composes two providers. A nil primary means the
// secondary always answers.
func NewFallbackProvider(primary, secondary Provider, logger *zap.Logger) *FallbackProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackProvider{primary: primary, secondary: secondary, logger: logger}
}

func (p *FallbackProvider) Resolve(ctx context.Context, req Request) (Outcome, error) {
	if p.primary != nil {
		r, err := p.primary.Diagnose(ctx, req)
		if err == nil {
			return Outcome{Result: Normalize(*r), Source: p.primary.Source()}, nil
		}
		p.logger.Warn("primary diagnosis provider failed, using fallback",
			zap.String("primary", string(p.primary.Source())),
			zap.String("fallback", string(p.secondary.Source())),
			zap.Error(err))
	}

	r, err := p.secondary.Diagnose(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: *r, Source: p.secondary.Source(), Degraded: p.primary != nil}, nil
}

func (p *FallbackProvider) Diagnose(ctx context.Context, req Request) (*Result, error) {
	o, err := p.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return &o.Result, nil
}

func (p *FallbackProvider) Source() Source {
	if p.primary != nil {
		return p.primary.Source()
	}
	return p.secondary.Source()
}
