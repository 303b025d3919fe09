// Package config loads tokensync project settings from .tokensync/config.yaml,
// a .env file and TOKENSYNC_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/tokensync/pkg/exporter"
	"github.com/gnana997/tokensync/pkg/tokenfile"
)

// DefaultPath is the project config file, relative to the working directory.
var DefaultPath = filepath.Join(".tokensync", "config.yaml")

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds the contents of .tokensync/config.yaml after overrides.
type Config struct {
	Store       string        `yaml:"store"`
	StateFile   string        `yaml:"state_file"`
	PostgresDSN string        `yaml:"postgres_dsn"`
	Tokens      TokensConfig  `yaml:"tokens"`
	Import      ImportConfig  `yaml:"import"`
	Export      ExportConfig  `yaml:"export"`
	Publish     PublishConfig `yaml:"publish"`
	Log         LogConfig     `yaml:"log"`
	Serve       ServeConfig   `yaml:"serve"`
	Watch       WatchConfig   `yaml:"watch"`
}

type TokensConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

type ImportConfig struct {
	BatchSize int `yaml:"batch_size"`
}

type ExportConfig struct {
	Format     string `yaml:"format"`
	Out        string `yaml:"out"`
	Verify     bool   `yaml:"verify"`
	CacheSize  int    `yaml:"cache_size"`
	TypeScript bool   `yaml:"typescript"`
}

// PublishConfig locates the S3-compatible bucket exports are uploaded to.
type PublishConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Enabled reports whether enough is configured to attempt an upload.
func (p PublishConfig) Enabled() bool {
	return p.Endpoint != "" && p.Bucket != ""
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	EventsFile string `yaml:"events_file"`
}

type ServeConfig struct {
	Listen string `yaml:"listen"`
}

type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Store:     StoreMemory,
		StateFile: filepath.Join(".tokensync", "state.json"),
		Tokens: TokensConfig{
			Include: append([]string(nil), tokenfile.DefaultInclude...),
			Exclude: append([]string(nil), tokenfile.DefaultExclude...),
		},
		Import: ImportConfig{BatchSize: 20},
		Export: ExportConfig{Format: string(exporter.FormatSimplified), CacheSize: 16},
		Log:    LogConfig{Level: "info", Format: "auto"},
		Serve:  ServeConfig{Listen: ":8787"},
		Watch:  WatchConfig{DebounceMS: 200},
	}
}

// Load reads path (DefaultPath when empty) over the defaults, then applies
// .env and environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("TOKENSYNC_STORE", &c.Store)
	str("TOKENSYNC_STATE", &c.StateFile)
	str("TOKENSYNC_PG_DSN", &c.PostgresDSN)
	str("TOKENSYNC_S3_ENDPOINT", &c.Publish.Endpoint)
	str("TOKENSYNC_S3_BUCKET", &c.Publish.Bucket)
	str("TOKENSYNC_S3_ACCESS_KEY", &c.Publish.AccessKey)
	str("TOKENSYNC_S3_SECRET_KEY", &c.Publish.SecretKey)
	str("TOKENSYNC_S3_REGION", &c.Publish.Region)
	str("TOKENSYNC_LOG_LEVEL", &c.Log.Level)
	if v := strings.TrimSpace(getenv("TOKENSYNC_S3_USE_SSL")); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			c.Publish.UseSSL = b
		}
	}
}

// Validate reports every problem in c rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error

	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("postgres_dsn is required when store is %q", StorePostgres))
		}
	default:
		errs = append(errs, fmt.Errorf("store must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store))
	}

	if _, err := exporter.ParseFormat(c.Export.Format); err != nil {
		errs = append(errs, fmt.Errorf("export.format: %w", err))
	}
	if c.Import.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("import.batch_size must not be negative"))
	}
	if c.Export.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("export.cache_size must not be negative"))
	}
	if c.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms must not be negative"))
	}
	if _, err := tokenfile.NewMatcher(c.Tokens.Include, c.Tokens.Exclude); err != nil {
		errs = append(errs, fmt.Errorf("tokens: %w", err))
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "auto", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be auto, json or text, got %q", c.Log.Format))
	}

	if c.Publish.Endpoint != "" || c.Publish.Bucket != "" {
		if c.Publish.Endpoint == "" {
			errs = append(errs, fmt.Errorf("publish.endpoint is required when publish.bucket is set"))
		}
		if c.Publish.Bucket == "" {
			errs = append(errs, fmt.Errorf("publish.bucket is required when publish.endpoint is set"))
		}
	}
	return errs
}
