package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/kadal/internal/core/usecases"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Valkey      ValkeyConfig      `mapstructure:"valkey"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	EarthEngine EarthEngineConfig `mapstructure:"earth_engine"`
	Geocoding   GeocodingConfig   `mapstructure:"geocoding"`
	LLM         LLMConfig         `mapstructure:"llm"`
	MCP         MCPConfig         `mapstructure:"mcp"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	Imagery     ImageryConfig     `mapstructure:"imagery"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	Debug        bool   `mapstructure:"debug"`
	CORSOrigins  string `mapstructure:"cors_origins"`
	Environment  string `mapstructure:"environment"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig is only needed for the optional query log.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type EarthEngineConfig struct {
	ProjectID       string        `mapstructure:"project_id"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type GeocodingConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// LLMConfig selects the planner model. An empty API key for anthropic
// means the rule-based planner is used.
type LLMConfig struct {
	Provider  string        `mapstructure:"provider"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Configured reports whether a model can be reached at all.
func (l LLMConfig) Configured() bool {
	switch l.Provider {
	case "anthropic":
		return l.APIKey != ""
	case "ollama":
		return l.BaseURL != ""
	}
	return false
}

type MCPConfig struct {
	Port      int    `mapstructure:"port"`
	Transport string `mapstructure:"transport"`
}

type MonitorConfig struct {
	TemporalHost  string        `mapstructure:"temporal_host"`
	Namespace     string        `mapstructure:"namespace"`
	TaskQueue     string        `mapstructure:"task_queue"`
	Interval      time.Duration `mapstructure:"interval"`
	ReferenceYear int           `mapstructure:"reference_year"`
	TargetYear    int           `mapstructure:"target_year"`
}

type ImageryConfig struct {
	Tiers usecases.ParameterTable `mapstructure:"tiers"`
}

// legacyEnv maps keys onto the unprefixed variable names older deployments use.
var legacyEnv = map[string]string{
	"earth_engine.project_id":       "EARTH_ENGINE_PROJECT_ID",
	"earth_engine.credentials_file": "GOOGLE_APPLICATION_CREDENTIALS",
	"geocoding.api_key":             "GOOGLE_MAPS_API_KEY",
	"llm.api_key":                   "ANTHROPIC_API_KEY",
	"server.debug":                  "DEBUG",
	"server.port":                   "BACKEND_PORT",
	"mcp.port":                      "MCP_PORT",
	"log.level":                     "LOG_LEVEL",
}

// Load reads configuration from .env, an optional config file and the
// environment.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.cors_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("server.environment", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "kadal")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "kadal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("earth_engine.project_id", "")
	v.SetDefault("earth_engine.credentials_file", "")
	v.SetDefault("earth_engine.base_url", "https://earthengine.googleapis.com")
	v.SetDefault("earth_engine.timeout", 2*time.Minute)
	v.SetDefault("geocoding.api_key", "")
	v.SetDefault("geocoding.base_url", "https://maps.googleapis.com")
	v.SetDefault("geocoding.rate_per_second", 10.0)
	v.SetDefault("geocoding.burst", 5)
	v.SetDefault("geocoding.timeout", 10*time.Second)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", 1500)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("mcp.port", 8001)
	v.SetDefault("mcp.transport", "http")
	v.SetDefault("monitor.temporal_host", "localhost:7233")
	v.SetDefault("monitor.namespace", "default")
	v.SetDefault("monitor.task_queue", "kadal-monitor")
	v.SetDefault("monitor.interval", 24*time.Hour)
	v.SetDefault("monitor.reference_year", 2022)
	v.SetDefault("monitor.target_year", 2023)
	v.SetDefault("imagery.tiers", usecases.DefaultParameterTable())

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: KADAL_EARTH_ENGINE_PROJECT_ID → earth_engine.project_id
	v.SetEnvPrefix("KADAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "KADAL_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}
	if c.EarthEngine.Timeout <= 0 {
		errs = append(errs, "earth_engine.timeout must be positive")
	}
	if c.Geocoding.RatePerSecond <= 0 {
		errs = append(errs, "geocoding.rate_per_second must be positive")
	}
	if c.Geocoding.Burst <= 0 {
		errs = append(errs, "geocoding.burst must be positive")
	}
	switch c.LLM.Provider {
	case "", "anthropic", "ollama":
	default:
		errs = append(errs, fmt.Sprintf("llm.provider must be anthropic or ollama, got %q", c.LLM.Provider))
	}
	switch c.MCP.Transport {
	case "http", "stdio":
	default:
		errs = append(errs, fmt.Sprintf("mcp.transport must be http or stdio, got %q", c.MCP.Transport))
	}
	if c.MCP.Port <= 0 || c.MCP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("mcp.port must be 1-65535, got %d", c.MCP.Port))
	}
	if c.Monitor.TargetYear <= c.Monitor.ReferenceYear {
		errs = append(errs, "monitor.target_year must be after monitor.reference_year")
	}
	for i, tier := range c.Imagery.Tiers {
		if tier.Scale <= 0 || tier.Dimensions <= 0 {
			errs = append(errs, fmt.Sprintf("imagery.tiers[%d] needs positive scale and dimensions", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
