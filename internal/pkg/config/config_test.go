package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "geo", DBName: "geo", SSLMode: "disable"},
		NATS:     NATSConfig{URL: "nats://localhost:4222"},
		Valkey:   ValkeyConfig{Addr: "localhost:6379"},
		Mapbox:   MapboxConfig{AccessToken: "pk.test", RequestTimeout: 10},
		Game:     GameConfig{MaxAttempts: 5, LeaderboardSize: 10, HistorySize: 10},
		Auth:     AuthConfig{JWTSecret: "s3cret", TokenTTLHours: 24},
		Recorder: RecorderConfig{Mode: RecorderTransaction},
	}
}

func TestValidate_OK(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	c := validConfig()
	c.Server.Port = 0
	c.Mapbox.AccessToken = ""
	c.Auth.JWTSecret = ""
	c.Recorder.Mode = "queue"

	err := c.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "mapbox.access_token", "auth.jwt_secret", "recorder.mode"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidate_TemporalMode(t *testing.T) {
	c := validConfig()
	c.Recorder.Mode = RecorderTemporal
	if err := c.Validate(); err == nil {
		t.Fatal("temporal mode without host or queue should fail")
	}
	c.Recorder.TemporalHost = "localhost:7233"
	c.Recorder.TaskQueue = "guesses"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("GEOLOCATOR_MAPBOX_ACCESS_TOKEN", "pk.env")
	t.Setenv("GEOLOCATOR_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("GEOLOCATOR_GAME_MAX_ATTEMPTS", "7")
	t.Setenv("GEOLOCATOR_SERVER_PORT", "9090")

	cfg, err := Load("geolocator-test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mapbox.AccessToken != "pk.env" || cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("env not applied: %+v %+v", cfg.Mapbox, cfg.Auth)
	}
	if cfg.Game.MaxAttempts != 7 || cfg.Server.Port != 9090 {
		t.Errorf("max_attempts=%d port=%d", cfg.Game.MaxAttempts, cfg.Server.Port)
	}
	if cfg.Telemetry.ServiceName != "geolocator-test" {
		t.Errorf("service name = %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Recorder.Mode != RecorderTransaction {
		t.Errorf("default recorder mode = %q", cfg.Recorder.Mode)
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("GEOLOCATOR_MAPBOX_ACCESS_TOKEN", "")
	t.Setenv("GEOLOCATOR_AUTH_JWT_SECRET", "")
	if _, err := Load("geolocator-test"); err == nil {
		t.Fatal("expected validation error without secrets")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "geo", SSLMode: "require"}
	want := "postgres://u:p@db:5432/geo?sslmode=require"
	if got := d.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
