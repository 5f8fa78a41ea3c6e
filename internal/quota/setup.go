package quota

import (
	"database/sql"
	"fmt"
	"time"

	"rental-marketplace/internal/common/config"
	"rental-marketplace/pkg/registry"

	"github.com/redis/go-redis/v9"
)

// LoadConfig resolves ceilings from the feature registry. Without a registry
// every built-in feature gets the configured default ceiling.
func LoadConfig(qc config.QuotaConfig) (Config, error) {
	loc, err := time.LoadLocation(qc.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("quota timezone %q: %w", qc.Timezone, err)
	}

	ceilings := map[string]int{
		FeatureChat:              qc.DefaultCeiling,
		FeatureCommuteAssessment: qc.DefaultCeiling,
	}
	if qc.RegistryPath != "" {
		reg, err := registry.LoadRegistry(qc.RegistryPath)
		if err != nil {
			return Config{}, fmt.Errorf("load feature registry: %w", err)
		}
		ceilings = reg.Ceilings()
	}

	return Config{Ceilings: ceilings, Privileged: qc.Privileged, Location: loc}, nil
}

// NewStore picks the usage store named by backend.
func NewStore(backend string, rdb redis.UniversalClient, db *sql.DB, maxRetries int) (Store, error) {
	switch backend {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis quota backend needs a redis client")
		}
		return NewRedisStore(rdb, maxRetries), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres quota backend needs a database")
		}
		return NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("unknown quota backend %q", backend)
	}
}
