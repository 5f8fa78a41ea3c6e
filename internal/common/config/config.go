// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Auth         AuthConfig              `mapstructure:"auth"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	APIs         APIsConfig              `mapstructure:"apis"`
	Quota        QuotaConfig             `mapstructure:"quota"`
	Search       SearchConfig            `mapstructure:"search"`
	Logging      LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port             int      `mapstructure:"port"`
	ReadTimeout      int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout     int      `mapstructure:"write_timeout"`    // milliseconds, 0 disables (streams)
	ShutdownTimeout  int      `mapstructure:"shutdown_timeout"` // milliseconds
	CORSOrigins      []string `mapstructure:"cors_origins"`
	RevalidateSecret string   `mapstructure:"revalidate_secret"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type CamundaConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	BrokerAddress     string `mapstructure:"broker_address"`
	MaxJobsActive     int    `mapstructure:"max_jobs_active"`
	Timeout           int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout    int    `mapstructure:"request_timeout"` // milliseconds
	FollowUpProcessID string `mapstructure:"follow_up_process_id"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	URL          string   `mapstructure:"url"`
	ListingIndex string   `mapstructure:"listing_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every workflow worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	Keycloak struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		Timeout      int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"keycloak"`

	// Admins may use the listing import endpoint.
	Admins []string `mapstructure:"admins"`
}

// IntegrationConfig holds settings for CRM, push and email delivery.
type IntegrationConfig struct {
	Zoho struct {
		BaseURL   string `mapstructure:"base_url"`
		APIKey    string `mapstructure:"api_key"`
		AuthToken string `mapstructure:"oauth_token"`
	} `mapstructure:"zoho"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled       bool   `mapstructure:"enabled"`
			AgentTopicARN string `mapstructure:"agent_topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI struct {
		APIKey        string  `mapstructure:"api_key"`
		Model         string  `mapstructure:"model"`
		Temperature   float32 `mapstructure:"temperature"`
		Timeout       int     `mapstructure:"timeout"`        // milliseconds, buffered calls
		StreamTimeout int     `mapstructure:"stream_timeout"` // milliseconds, whole stream
	} `mapstructure:"genai"`

	Geocoding struct {
		BaseURL  string `mapstructure:"base_url"`
		APIKey   string `mapstructure:"api_key"`
		Region   string `mapstructure:"region"`
		Timeout  int    `mapstructure:"timeout"`   // milliseconds
		CacheTTL int    `mapstructure:"cache_ttl"` // seconds
	} `mapstructure:"geocoding"`
}

// QuotaConfig configures the daily usage gate.
type QuotaConfig struct {
	Backend        string   `mapstructure:"backend"` // "redis" or "postgres"
	RegistryPath   string   `mapstructure:"registry_path"`
	Timezone       string   `mapstructure:"timezone"`
	DefaultCeiling int      `mapstructure:"default_ceiling"`
	Privileged     []string `mapstructure:"privileged"`
	MaxRetries     int      `mapstructure:"max_retries"`
}

// SearchConfig configures listing search.
type SearchConfig struct {
	DebounceMs      int     `mapstructure:"debounce_ms"`
	HitsPerPage     int     `mapstructure:"hits_per_page"`
	MaxRent         int     `mapstructure:"max_rent"`
	GeoRadiusMeters int     `mapstructure:"geo_radius_meters"`
	DefaultLat      float64 `mapstructure:"default_lat"`
	DefaultLng      float64 `mapstructure:"default_lng"`
	Timeout         int     `mapstructure:"timeout"`   // milliseconds
	CacheTTL        int     `mapstructure:"cache_ttl"` // seconds, 0 disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
