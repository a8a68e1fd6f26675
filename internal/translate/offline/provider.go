package offline

import (
	"context"
	"fmt"
	"path/filepath"

	"vprepair/internal/domain"
	"vprepair/internal/translate"
)

const Name = "offline"

// Provider serves a hop from the first installed package for the pair.
type Provider struct {
	Store  Store
	Ollama *Ollama
}

func New(modelDir, ollamaURL string) *Provider {
	return &Provider{Store: Store{Dir: modelDir}, Ollama: NewOllama(ollamaURL, 0)}
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Translate(ctx context.Context, text string, source, target domain.Language) (string, error) {
	pkg, ok, err := p.Store.Find(source, target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", translate.ErrModelUnavailable, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: no package for %s->%s in %s", translate.ErrModelUnavailable, source, target, p.Store.Dir)
	}
	switch pkg.Engine {
	case EnginePhrasebook:
		pb, err := LoadPhrasebook(filepath.Join(pkg.Dir, pkg.Phrases))
		if err != nil {
			return "", fmt.Errorf("%w: package %s: %v", translate.ErrModelUnavailable, pkg.Name, err)
		}
		return pb.Translate(text), nil
	case EngineOllama:
		if p.Ollama == nil {
			return "", fmt.Errorf("%w: package %s needs an ollama runtime", translate.ErrModelUnavailable, pkg.Name)
		}
		return p.Ollama.Translate(ctx, pkg.Model, text, source, target)
	}
	return "", fmt.Errorf("%w: package %s has engine %q", translate.ErrModelUnavailable, pkg.Name, pkg.Engine)
}

func (p *Provider) Pairs(context.Context) ([]translate.Pair, error) {
	pkgs, _, err := p.Store.Packages()
	if err != nil {
		return nil, err
	}
	out := make([]translate.Pair, 0, len(pkgs))
	for _, pkg := range pkgs {
		out = append(out, translate.Pair{Source: pkg.From, Target: pkg.To, Name: pkg.Name, Engine: pkg.Engine})
	}
	return out, nil
}
