package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	TfL       TfLConfig       `mapstructure:"tfl"`
	Map       MapConfig       `mapstructure:"map"`
	Poller    PollerConfig    `mapstructure:"poller"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
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

// TfLConfig points at the TfL Unified API. AppKey may be empty; anonymous
// requests are served at a lower rate limit.
type TfLConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	AppKey        string `mapstructure:"app_key"`
	SearchTimeout int    `mapstructure:"search_timeout"` // seconds
}

// MapConfig fixes the viewport engine's zoom range and fallback view.
// Validated with struct tags since the zoom bounds interlock.
type MapConfig struct {
	MinZoom     int     `mapstructure:"min_zoom" validate:"gte=3,lte=8"`
	MaxZoom     int     `mapstructure:"max_zoom" validate:"gte=10,lte=18,gtfield=MinZoom"`
	DefaultZoom int     `mapstructure:"default_zoom" validate:"gtefield=MinZoom,ltefield=MaxZoom"`
	CenterLat   float64 `mapstructure:"center_lat" validate:"gte=-85,lte=85"`
	CenterLon   float64 `mapstructure:"center_lon" validate:"gt=-180,lte=180"`
	TileURL     string  `mapstructure:"tile_url" validate:"required,contains={z}"`
}

type PollerConfig struct {
	Interval     int `mapstructure:"interval"`      // seconds between poll cycles
	FetchTimeout int `mapstructure:"fetch_timeout"` // seconds per upstream fetch
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "buschecker")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "buschecker")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("tfl.base_url", "https://api.tfl.gov.uk")
	v.SetDefault("tfl.app_key", "")
	v.SetDefault("tfl.search_timeout", 5)
	v.SetDefault("map.min_zoom", 8)
	v.SetDefault("map.max_zoom", 18)
	v.SetDefault("map.default_zoom", 14)
	v.SetDefault("map.center_lat", 51.5074)
	v.SetDefault("map.center_lon", -0.1278)
	v.SetDefault("map.tile_url", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("poller.interval", 20)
	v.SetDefault("poller.fetch_timeout", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: LBT_DATABASE_HOST → database.host
	v.SetEnvPrefix("LBT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.TfL.BaseURL == "" {
		errs = append(errs, "tfl.base_url is required")
	}
	if c.TfL.SearchTimeout <= 0 {
		errs = append(errs, "tfl.search_timeout must be positive")
	}
	if c.Poller.Interval <= 0 {
		errs = append(errs, "poller.interval must be positive")
	}
	if c.Poller.FetchTimeout <= 0 {
		errs = append(errs, "poller.fetch_timeout must be positive")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	if err := validator.New().Struct(c.Map); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("map.%s fails %q", strings.ToLower(fe.Field()), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
