// internal/workers/consultation/crm-lead-create/config.go
package crmleadcreate

import (
	"time"

	"rental-marketplace/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	LeadSource string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:    config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		LeadSource: defaultLeadSource,
	}
}
