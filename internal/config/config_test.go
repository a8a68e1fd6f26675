package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Translation.Target != "da" || cfg.Translation.Pivot != "en" {
		t.Fatalf("unexpected defaults: %+v", cfg.Translation)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Fatalf("request timeout = %s", cfg.Server.RequestTimeout)
	}
}

func TestFromYAMLOverridesDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte(`
translation:
  providers: [online]
  online:
    enabled: true
    url: http://mt.local/translate
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Translation.Target != "da" {
		t.Fatalf("target default lost")
	}
	if len(cfg.Translation.Providers) != 1 || cfg.Translation.Providers[0] != ProviderOnline {
		t.Fatalf("providers = %v", cfg.Translation.Providers)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"unknown provider": "translation:\n  providers: [cloud]\n",
		"duplicate":        "translation:\n  providers: [offline, offline]\n",
		"target":           "translation:\n  target: fr\n",
		"online url":       "translation:\n  online:\n    enabled: true\n",
		"postgres dsn":     "database:\n  driver: postgres\n",
		"driver":           "database:\n  driver: mysql\n",
	}
	for name, doc := range cases {
		if _, err := FromYAML([]byte(doc)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestExtraLanguages(t *testing.T) {
	cfg, err := FromYAML([]byte("translation:\n  languages: [da, en, de, pl, uk]\n  extra_languages:\n    uk: Українська\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cfg.Translation.Languages) != 5 {
		t.Fatalf("languages = %v", cfg.Translation.Languages)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "vprepair.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("driver = %s", cfg.Database.Driver)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("logging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(Path(dir))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %s", cfg.Logging.Level)
	}
	if !strings.Contains(GenerateDefault(), "providers: [offline, online]") {
		t.Fatalf("template missing provider order")
	}
}
