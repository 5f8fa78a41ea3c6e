package quota

import (
	"os"
	"path/filepath"
	"testing"

	"rental-marketplace/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "1.0"
features:
  - id: chat
    dailyCeiling: 10
    enabled: true
  - id: commute_assessment
    dailyCeiling: 3
    enabled: true
  - id: agreement_risk
    dailyCeiling: 1
    enabled: false
`), 0o644))

	tests := []struct {
		name     string
		qc       config.QuotaConfig
		validate func(t *testing.T, cfg Config, err error)
	}{
		{
			name: "registry ceilings",
			qc:   config.QuotaConfig{RegistryPath: path, Timezone: "Asia/Kuala_Lumpur", DefaultCeiling: 5},
			validate: func(t *testing.T, cfg Config, err error) {
				require.NoError(t, err)
				assert.Equal(t, map[string]int{FeatureChat: 10, FeatureCommuteAssessment: 3}, cfg.Ceilings)
				assert.Equal(t, "Asia/Kuala_Lumpur", cfg.Location.String())
			},
		},
		{
			name: "defaults without registry",
			qc:   config.QuotaConfig{Timezone: "UTC", DefaultCeiling: 5, Privileged: []string{"ops"}},
			validate: func(t *testing.T, cfg Config, err error) {
				require.NoError(t, err)
				assert.Equal(t, 5, cfg.Ceilings[FeatureChat])
				assert.Equal(t, 5, cfg.Ceilings[FeatureCommuteAssessment])
				assert.Equal(t, []string{"ops"}, cfg.Privileged)
			},
		},
		{
			name: "bad timezone",
			qc:   config.QuotaConfig{Timezone: "Mars/Olympus"},
			validate: func(t *testing.T, _ Config, err error) {
				assert.Error(t, err)
			},
		},
		{
			name: "missing registry file",
			qc:   config.QuotaConfig{Timezone: "UTC", RegistryPath: filepath.Join(t.TempDir(), "nope.yaml")},
			validate: func(t *testing.T, _ Config, err error) {
				assert.ErrorContains(t, err, "load feature registry")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.qc)
			tt.validate(t, cfg, err)
		})
	}
}

func TestNewStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	store, err := NewStore("redis", rdb, nil, 10)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)

	_, err = NewStore("postgres", rdb, nil, 10)
	assert.Error(t, err)

	_, err = NewStore("dynamo", rdb, nil, 10)
	assert.ErrorContains(t, err, "unknown quota backend")
}
