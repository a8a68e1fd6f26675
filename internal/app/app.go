// Package app builds a ready engine from configuration.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"vprepair/internal/config"
	"vprepair/internal/db"
	"vprepair/internal/domain"
	"vprepair/internal/engine"
	"vprepair/internal/gormstore"
	"vprepair/internal/migrate"
	"vprepair/internal/repo"
	"vprepair/internal/translate"
	"vprepair/internal/translate/offline"
	"vprepair/internal/translate/online"
)

type App struct {
	Config *config.Config
	Engine engine.Engine
	Log    logrus.FieldLogger

	closers []io.Closer
}

func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open connects the configured store, builds the providers in configured
// order and returns the engine over them.
func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log}
	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	router := NewRouter(cfg, log)
	a.Engine = engine.New(store, router, cfg, log)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (engine.Store, error) {
	cfg := a.Config
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		s, err := gormstore.Open(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, s)
		return s, nil
	default:
		conn, err := db.Open(db.Config{Workspace: cfg.Database.Workspace})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn)
		applied, err := migrate.Migrate(ctx, conn)
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 && a.Log != nil {
			a.Log.WithField("migrations", applied).Info("applied migrations")
		}
		return repo.Repo{DB: conn}, nil
	}
}

// NewRouter builds the enabled providers in the configured order.
func NewRouter(cfg *config.Config, log logrus.FieldLogger) *translate.Router {
	t := cfg.Translation
	var providers []translate.Provider
	for _, name := range t.Providers {
		switch name {
		case config.ProviderOffline:
			if t.Offline.Enabled {
				providers = append(providers, offline.New(t.Offline.ModelDir, t.Offline.OllamaURL))
			}
		case config.ProviderOnline:
			if t.Online.Enabled {
				providers = append(providers, online.New(t.Online.URL, t.Online.APIKey, t.Online.Timeout))
			}
		}
	}
	if len(providers) == 0 && log != nil {
		log.Warn("no translation provider enabled; every report will keep its original text")
	}
	return translate.NewRouter(domain.Language(t.Pivot), log, providers...)
}
