package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "simplified", cfg.Export.Format)
	assert.Equal(t, 20, cfg.Import.BatchSize)
	assert.NotEmpty(t, cfg.Tokens.Include)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store: postgres
postgres_dsn: postgres://localhost/tokens
tokens:
  include: ["design/**/*.json"]
export:
  format: css
  out: dist
  verify: true
publish:
  endpoint: localhost:9000
  bucket: design
log:
  level: debug
watch:
  debounce_ms: 500
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://localhost/tokens", cfg.PostgresDSN)
	assert.Equal(t, []string{"design/**/*.json"}, cfg.Tokens.Include)
	assert.NotEmpty(t, cfg.Tokens.Exclude, "unset keys keep defaults")
	assert.Equal(t, "css", cfg.Export.Format)
	assert.True(t, cfg.Export.Verify)
	assert.True(t, cfg.Publish.Enabled())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 500, cfg.Watch.DebounceMS)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TOKENSYNC_STORE":         "postgres",
		"TOKENSYNC_PG_DSN":        "postgres://db/x",
		"TOKENSYNC_S3_ENDPOINT":   "s3.local:9000",
		"TOKENSYNC_S3_BUCKET":     "tokens",
		"TOKENSYNC_S3_ACCESS_KEY": "ak",
		"TOKENSYNC_S3_SECRET_KEY": "sk",
		"TOKENSYNC_S3_USE_SSL":    "true",
		"TOKENSYNC_LOG_LEVEL":     "warn",
	}
	cfg := Default()
	cfg.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://db/x", cfg.PostgresDSN)
	assert.Equal(t, "s3.local:9000", cfg.Publish.Endpoint)
	assert.Equal(t, "tokens", cfg.Publish.Bucket)
	assert.Equal(t, "ak", cfg.Publish.AccessKey)
	assert.Equal(t, "sk", cfg.Publish.SecretKey)
	assert.True(t, cfg.Publish.UseSSL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnv_IgnoresBadBool(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(func(k string) string {
		if k == "TOKENSYNC_S3_USE_SSL" {
			return "maybe"
		}
		return ""
	})
	assert.False(t, cfg.Publish.UseSSL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		count  int
	}{
		{"defaults", func(*Config) {}, 0},
		{"unknown store", func(c *Config) { c.Store = "redis" }, 1},
		{"postgres without dsn", func(c *Config) { c.Store = StorePostgres }, 1},
		{"bad format", func(c *Config) { c.Export.Format = "scss" }, 1},
		{"bad pattern", func(c *Config) { c.Tokens.Include = []string{"[x"} }, 1},
		{"negative sizes", func(c *Config) { c.Import.BatchSize = -1; c.Export.CacheSize = -1 }, 2},
		{"half publish", func(c *Config) { c.Publish.Bucket = "b" }, 1},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, 1},
		{"aggregates", func(c *Config) { c.Store = "x"; c.Export.Format = "y"; c.Watch.DebounceMS = -5 }, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Len(t, cfg.Validate(), tt.count)
		})
	}
}
