package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"vprepair/internal/domain"
)

const (
	ProviderOffline = "offline"
	ProviderOnline  = "online"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config models vprepair.yml.
type Config struct {
	Server struct {
		Addr           string        `yaml:"addr"`
		BasePath       string        `yaml:"base_path"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"server"`
	Database struct {
		Driver    string `yaml:"driver"`
		Workspace string `yaml:"workspace"`
		DSN       string `yaml:"dsn"`
	} `yaml:"database"`
	Translation Translation `yaml:"translation"`
	Auth        struct {
		JWTSecret        string `yaml:"jwt_secret"`
		AllowActorHeader bool   `yaml:"allow_actor_header"`
	} `yaml:"auth"`
	Logging Logging `yaml:"logging"`
}

type Translation struct {
	Target         string            `yaml:"target"`
	Pivot          string            `yaml:"pivot"`
	Languages      []string          `yaml:"languages"`
	ExtraLanguages map[string]string `yaml:"extra_languages"`
	Providers      []string          `yaml:"providers"`
	Offline        struct {
		Enabled   bool   `yaml:"enabled"`
		ModelDir  string `yaml:"model_dir"`
		OllamaURL string `yaml:"ollama_url"`
	} `yaml:"offline"`
	Online struct {
		Enabled bool          `yaml:"enabled"`
		URL     string        `yaml:"url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"online"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Load reads config from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path(".")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			return cfg, cfg.Validate()
		}
		return nil, err
	}
	return FromYAML(data)
}

// RegisterLanguages adds configured extra languages to the domain registry.
func (c *Config) RegisterLanguages() {
	for code, name := range c.Translation.ExtraLanguages {
		domain.RegisterLanguage(domain.Language(code), name)
	}
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	c.RegisterLanguages()
	t := c.Translation
	if len(t.Languages) == 0 {
		return fmt.Errorf("config.translation.languages is required")
	}
	accepted := map[string]bool{}
	for _, code := range t.Languages {
		l, err := domain.ParseLanguage(code)
		if err != nil {
			return fmt.Errorf("config.translation.languages: %w", err)
		}
		accepted[string(l)] = true
	}
	if !accepted[t.Target] {
		return fmt.Errorf("config.translation.target %q must be one of languages", t.Target)
	}
	if !accepted[t.Pivot] {
		return fmt.Errorf("config.translation.pivot %q must be one of languages", t.Pivot)
	}
	if len(t.Providers) == 0 {
		return fmt.Errorf("config.translation.providers is required")
	}
	seen := map[string]bool{}
	for _, p := range t.Providers {
		if p != ProviderOffline && p != ProviderOnline {
			return fmt.Errorf("unknown translation provider %s", p)
		}
		if seen[p] {
			return fmt.Errorf("translation provider %s listed twice", p)
		}
		seen[p] = true
	}
	if t.Offline.Enabled && t.Offline.ModelDir == "" {
		return fmt.Errorf("config.translation.offline.model_dir is required when offline is enabled")
	}
	if t.Online.Enabled && t.Online.URL == "" {
		return fmt.Errorf("config.translation.online.url is required when online is enabled")
	}
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("config.database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database driver %s", c.Database.Driver)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logging format %s", c.Logging.Format)
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "vprepair.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing
// from data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultTemplate = `server:
  addr: 127.0.0.1:8080
  base_path: /v1
  request_timeout: 30s

database:
  driver: sqlite
  workspace: .

translation:
  target: da
  pivot: en
  languages: [da, en, de, pl]
  providers: [offline, online]
  offline:
    enabled: true
    model_dir: ./models
    ollama_url: http://127.0.0.1:11434
  online:
    enabled: false
    url: ""
    timeout: 20s

auth:
  allow_actor_header: false

logging:
  level: info
  format: text
`
