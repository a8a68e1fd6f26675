package translate

import (
	"context"

	"vprepair/internal/domain"
)

// Provider translates text for a single language pair. Implementations
// return an error wrapping one of the package sentinels on failure.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text string, source, target domain.Language) (string, error)
}

// Pair is an installed source/target combination.
type Pair struct {
	Source domain.Language `json:"source"`
	Target domain.Language `json:"target"`
	Name   string          `json:"name,omitempty"`
	Engine string          `json:"engine,omitempty"`
}

// PairLister is implemented by providers that can enumerate installed pairs.
type PairLister interface {
	Pairs(ctx context.Context) ([]Pair, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc struct {
	ProviderName string
	Fn           func(ctx context.Context, text string, source, target domain.Language) (string, error)
}

func (p ProviderFunc) Name() string { return p.ProviderName }

func (p ProviderFunc) Translate(ctx context.Context, text string, source, target domain.Language) (string, error) {
	return p.Fn(ctx, text, source, target)
}
