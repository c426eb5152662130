package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Recorder modes.
const (
	RecorderTransaction = "transaction"
	RecorderTemporal    = "temporal"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Mapbox    MapboxConfig    `mapstructure:"mapbox"`
	Game      GameConfig      `mapstructure:"game"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Recorder  RecorderConfig  `mapstructure:"recorder"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	BodyLimit    int `mapstructure:"body_limit"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
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
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type MapboxConfig struct {
	AccessToken    string `mapstructure:"access_token"`
	GeocodingURL   string `mapstructure:"geocoding_url"`
	StaticURL      string `mapstructure:"static_url"`
	RequestTimeout int    `mapstructure:"request_timeout"` // seconds
}

// Timeout returns the geocoder request timeout.
func (m MapboxConfig) Timeout() time.Duration {
	return time.Duration(m.RequestTimeout) * time.Second
}

type GameConfig struct {
	MaxAttempts     int `mapstructure:"max_attempts"`
	LeaderboardSize int `mapstructure:"leaderboard_size"`
	HistorySize     int `mapstructure:"history_size"`
}

type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
}

// TokenTTL returns the session token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

type RecorderConfig struct {
	Mode         string `mapstructure:"mode"`
	TemporalHost string `mapstructure:"temporal_host"`
	TaskQueue    string `mapstructure:"task_queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.body_limit", 64*1024)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "geolocator")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "geolocator")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "geolocator:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("mapbox.access_token", "")
	v.SetDefault("mapbox.geocoding_url", "https://api.mapbox.com/geocoding/v5/mapbox.places")
	v.SetDefault("mapbox.static_url", "https://api.mapbox.com/styles/v1/mapbox")
	v.SetDefault("mapbox.request_timeout", 10)
	v.SetDefault("game.max_attempts", 5)
	v.SetDefault("game.leaderboard_size", 10)
	v.SetDefault("game.history_size", 10)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("recorder.mode", RecorderTransaction)
	v.SetDefault("recorder.temporal_host", "localhost:7233")
	v.SetDefault("recorder.task_queue", "geolocator-guesses")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GEOLOCATOR_DATABASE_HOST → database.host
	v.SetEnvPrefix("GEOLOCATOR")
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
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Mapbox.AccessToken == "" {
		errs = append(errs, "mapbox.access_token is required")
	}
	if c.Mapbox.RequestTimeout <= 0 {
		errs = append(errs, "mapbox.request_timeout must be positive")
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth.jwt_secret is required")
	}
	if c.Auth.TokenTTLHours <= 0 {
		errs = append(errs, "auth.token_ttl_hours must be positive")
	}
	if c.Game.LeaderboardSize <= 0 || c.Game.HistorySize <= 0 {
		errs = append(errs, "game.leaderboard_size and game.history_size must be positive")
	}
	switch c.Recorder.Mode {
	case RecorderTransaction:
	case RecorderTemporal:
		if c.Recorder.TemporalHost == "" || c.Recorder.TaskQueue == "" {
			errs = append(errs, "recorder.temporal_host and recorder.task_queue are required in temporal mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("recorder.mode must be %q or %q, got %q",
			RecorderTransaction, RecorderTemporal, c.Recorder.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
