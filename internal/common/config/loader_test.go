package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: rental-marketplace
  environment: test
database:
  postgres:
    host: localhost
    database: rentals
    user: rentals
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
quota:
  privileged: ["dev-account"]
search:
  default_lat: 3.15
  default_lng: 101.71
apis:
  geocoding:
    api_key: ${TEST_GEOCODING_KEY}
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("TEST_GEOCODING_KEY", "geo-key")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Quota.Backend)
	assert.Equal(t, 5, cfg.Quota.DefaultCeiling)
	assert.Equal(t, "Asia/Kuala_Lumpur", cfg.Quota.Timezone)
	assert.Equal(t, []string{"dev-account"}, cfg.Quota.Privileged)
	assert.Equal(t, 500, cfg.Search.DebounceMs)
	assert.Equal(t, 20, cfg.Search.HitsPerPage)
	assert.Equal(t, 5000, cfg.Search.MaxRent)
	assert.Equal(t, 3.15, cfg.Search.DefaultLat)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Database.Elasticsearch.Addresses)
	assert.Equal(t, "listings", cfg.Database.Elasticsearch.ListingIndex)
	assert.Equal(t, "geo-key", cfg.APIs.Geocoding.APIKey)
}

func TestLoadFromFile_EnvFallback(t *testing.T) {
	t.Setenv("REVALIDATE_SECRET", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Server.RevalidateSecret)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"camunda enabled without broker", func(c *Config) { c.Camunda.Enabled = true }, "camunda.broker_address"},
		{"missing redis", func(c *Config) { c.Database.Redis.Address = "" }, "database.redis.address"},
		{"bad backend", func(c *Config) { c.Quota.Backend = "memcached" }, "quota.backend"},
		{"bad timezone", func(c *Config) { c.Quota.Timezone = "Mars/Olympus" }, "quota.timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromFile(writeConfig(t, baseYAML))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, "1.5s", GetDuration(1500).String())
}
