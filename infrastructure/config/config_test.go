package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subscout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_address: ":9000"
storage_backend: postgres
database_url: postgres://file/db
conn_max_lifetime: 5m
cors_origins:
  - https://file.example
app_rate_limit: 7
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("DB_CONN_MAX_LIFETIME", "")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("APP_RATE_LIMIT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ServerAddress)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, StoragePostgres, cfg.StorageBackend)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 7, cfg.AppRateLimit)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoadConfig_TrustProxyHeaders(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.StorageBackend = "mongo" },
			wantErr: "unknown STORAGE_BACKEND",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.StorageBackend = StoragePostgres },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "dynamodb without table",
			mutate:  func(c *Config) { c.StorageBackend = StorageDynamoDB; c.DynamoDBTable = "" },
			wantErr: "DYNAMODB_TABLE",
		},
		{
			name:    "unknown title grouping",
			mutate:  func(c *Config) { c.TitleGrouping = "fuzzy" },
			wantErr: "TITLE_GROUPING",
		},
		{
			name:    "non-positive rate limit",
			mutate:  func(c *Config) { c.AppRateLimit = 0 },
			wantErr: "APP_RATE_LIMIT",
		},
		{
			name: "production without identity provider",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.StorageBackend = StorageDynamoDB
			},
			wantErr: "SUPABASE_JWT_SECRET",
		},
		{
			name: "production on memory",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.SupabaseJWTSecret = "secret"
			},
			wantErr: "memory backend",
		},
		{
			name: "production with secret",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.StorageBackend = StorageDynamoDB
				c.SupabaseJWTSecret = "secret"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
