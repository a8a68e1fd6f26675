package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"vprepair/internal/config"
	"vprepair/internal/domain"
	"vprepair/internal/engine"
	"vprepair/internal/translate"
)

func setupViper(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	t.Cleanup(viper.Reset)
	initConfig()
	viper.Set("config", filepath.Join(dir, "vprepair.yml"))
	t.Setenv("VPREPAIR_WORKSPACE", dir)
	t.Setenv("VPREPAIR_MODEL_DIR", filepath.Join(dir, "models"))
	return dir
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := setupViper(t)
	t.Setenv("VPREPAIR_DATABASE_DRIVER", config.DriverPostgres)
	t.Setenv("VPREPAIR_DATABASE_DSN", "postgres://repair@localhost/repair")
	t.Setenv("VPREPAIR_LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Database.Driver != config.DriverPostgres || cfg.Database.DSN != "postgres://repair@localhost/repair" {
		t.Fatalf("database overrides not applied: %+v", cfg.Database)
	}
	if cfg.Database.Workspace != dir || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected config %+v %+v", cfg.Database, cfg.Logging)
	}
}

func TestLoadConfigRejectsInvalidOverride(t *testing.T) {
	setupViper(t)
	t.Setenv("VPREPAIR_DATABASE_DRIVER", "mysql")
	if _, err := loadConfig(); err == nil {
		t.Fatalf("expected unknown driver to fail validation")
	}
}

func TestWithEngineSubmitAndQueue(t *testing.T) {
	setupViper(t)
	ctx := context.Background()

	var id string
	err := withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		rep, res, err := e.SubmitReport(ctx, engine.Submission{Description: "Silnik nie działa", SourceLanguage: "pl", Priority: "high"})
		if err != nil {
			return err
		}
		if res.Outcome != translate.OutcomeFailed {
			t.Errorf("expected failed translation without model packages, got %s", res.Outcome)
		}
		id = rep.ID
		_, err = e.Assign(ctx, rep.ID, "mech-1", "boss")
		return err
	})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	// a second run reopens the same workspace database
	err = withEngine(ctx, func(ctx context.Context, e engine.Engine) error {
		reps, err := e.OpenReportsFor(ctx, "mech-1")
		if err != nil {
			return err
		}
		if len(reps) != 1 || reps[0].ID != id || reps[0].Status() != domain.StatusAssigned {
			t.Errorf("unexpected queue %+v", reps)
		}
		if !translate.IsFailureMarker(reps[0].TranslatedText) {
			t.Errorf("expected failure marker, got %q", reps[0].TranslatedText)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
}
