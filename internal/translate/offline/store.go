// Package offline translates with locally installed model packages.
//
// A package lives in its own directory under the model directory and is
// described by package.yml:
//
//	from: de
//	to: en
//	engine: phrasebook   # or ollama
//	phrases: phrases.yml # phrasebook only
//	model: llama3.1      # ollama only
package offline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"vprepair/internal/domain"
)

const (
	EnginePhrasebook = "phrasebook"
	EngineOllama     = "ollama"

	manifestName   = "package.yml"
	defaultPhrases = "phrases.yml"
)

type Package struct {
	Name    string          `yaml:"-"`
	Dir     string          `yaml:"-"`
	From    domain.Language `yaml:"from"`
	To      domain.Language `yaml:"to"`
	Engine  string          `yaml:"engine"`
	Model   string          `yaml:"model,omitempty"`
	Phrases string          `yaml:"phrases,omitempty"`
}

func (p Package) validate() error {
	from, err := domain.ParseLanguage(string(p.From))
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	to, err := domain.ParseLanguage(string(p.To))
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}
	if from == to {
		return fmt.Errorf("from and to are both %s", from)
	}
	switch p.Engine {
	case EnginePhrasebook:
	case EngineOllama:
		if p.Model == "" {
			return errors.New("ollama package requires model")
		}
	default:
		return fmt.Errorf("unknown engine %q", p.Engine)
	}
	return nil
}

// Store reads installed packages from Dir. Nothing is cached so packages
// added or removed while running are seen on the next call.
type Store struct {
	Dir string
}

// Packages lists valid packages sorted by name. Broken manifests are
// returned in skipped rather than failing the whole listing.
func (s Store) Packages() (pkgs []Package, skipped map[string]error, err error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read model dir: %w", err)
	}
	skipped = map[string]error{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pkg, err := s.load(e.Name())
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			skipped[e.Name()] = err
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	return pkgs, skipped, nil
}

func (s Store) load(name string) (Package, error) {
	dir := filepath.Join(s.Dir, name)
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return Package{}, err
	}
	var pkg Package
	if err := yaml.Unmarshal(data, &pkg); err != nil {
		return Package{}, fmt.Errorf("parse %s: %w", manifestName, err)
	}
	if err := pkg.validate(); err != nil {
		return Package{}, err
	}
	pkg.From, _ = domain.ParseLanguage(string(pkg.From))
	pkg.To, _ = domain.ParseLanguage(string(pkg.To))
	pkg.Name = name
	pkg.Dir = dir
	if pkg.Engine == EnginePhrasebook && pkg.Phrases == "" {
		pkg.Phrases = defaultPhrases
	}
	return pkg, nil
}

// Find returns the first package for the pair, by name order.
func (s Store) Find(from, to domain.Language) (Package, bool, error) {
	pkgs, _, err := s.Packages()
	if err != nil {
		return Package{}, false, err
	}
	for _, p := range pkgs {
		if p.From == from && p.To == to {
			return p, true, nil
		}
	}
	return Package{}, false, nil
}
