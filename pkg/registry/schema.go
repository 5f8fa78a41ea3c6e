// pkg/registry/schema.go
package registry

// FeatureRegistry lists the quota-gated features and their daily ceilings.
type FeatureRegistry struct {
	Version     string    `yaml:"version" json:"version"`
	LastUpdated string    `yaml:"lastUpdated" json:"lastUpdated"`
	Timezone    string    `yaml:"timezone,omitempty" json:"timezone,omitempty"`
	Features    []Feature `yaml:"features" json:"features"`
}

type Feature struct {
	ID           string   `yaml:"id" json:"id"`
	DisplayName  string   `yaml:"displayName" json:"displayName"`
	Description  string   `yaml:"description" json:"description"`
	DailyCeiling int      `yaml:"dailyCeiling" json:"dailyCeiling"`
	Enabled      bool     `yaml:"enabled" json:"enabled"`
	Endpoints    []string `yaml:"endpoints,omitempty" json:"endpoints,omitempty"`
	Tags         []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}
