package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected addr: %q", cfg.HTTP.Addr)
	}
	if cfg.Session.Backend != StorageMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Session.Backend)
	}
	if cfg.Session.TTL != 12*time.Hour || cfg.Session.TabIdleTTL != 30*time.Minute {
		t.Fatalf("unexpected session TTLs: %+v", cfg.Session)
	}
	if cfg.Catalog.Timeout != 30*time.Second || cfg.Catalog.RowsExpr != "data" || cfg.Catalog.SuccessExpr != "success" {
		t.Fatalf("unexpected catalog defaults: %+v", cfg.Catalog)
	}
	if cfg.Catalog.OAuth.Enabled() {
		t.Fatal("oauth should be disabled by default")
	}
	if cfg.Observability.Metrics.IsEnabled() {
		t.Fatal("metrics should be disabled by default")
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
}

func TestAppConfig_ParseCatalogEnv(t *testing.T) {
	t.Setenv("CATALOG_ENDPOINT", " https://sheets.example.com/exec ")
	t.Setenv("CATALOG_TIMEOUT", "5s")
	t.Setenv("CATALOG_ROWS_EXPR", "payload.rows")
	t.Setenv("CATALOG_OAUTH_TOKEN_URL", "https://login.example.com/token")
	t.Setenv("CATALOG_OAUTH_CLIENT_ID", "dashboard")
	t.Setenv("CATALOG_OAUTH_CLIENT_SECRET", "s3cret")
	t.Setenv("CATALOG_OAUTH_SCOPES", "sheets.read, ,drive.read")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	expected := CatalogConfig{
		Endpoint:    "https://sheets.example.com/exec",
		Timeout:     5 * time.Second,
		RowsExpr:    "payload.rows",
		SuccessExpr: "success",
		OAuth: CatalogOAuthConfig{
			TokenURL:     "https://login.example.com/token",
			ClientID:     "dashboard",
			ClientSecret: "s3cret",
			Scopes:       []string{"sheets.read", "drive.read"},
		},
	}
	if !reflect.DeepEqual(cfg.Catalog, expected) {
		t.Fatalf("unexpected catalog configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Catalog)
	}
	if !cfg.Catalog.OAuth.Enabled() {
		t.Fatal("expected oauth to be enabled")
	}
}

func TestStorageBackend_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    StorageBackend
		wantErr bool
	}{
		{in: "memory", want: StorageMemory},
		{in: "Redis", want: StorageRedis},
		{in: " postgres ", want: StoragePostgres},
		{in: "sqlite", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var b StorageBackend
			err := b.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b != tt.want {
				t.Fatalf("got %q, want %q", b, tt.want)
			}
		})
	}
}

func TestAppConfig_ParseSessionEnv(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("SESSION_TAB_IDLE_TTL", "5m")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Session.Backend != StorageRedis || cfg.Session.TTL != time.Hour || cfg.Session.TabIdleTTL != 5*time.Minute {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}

	t.Setenv("SESSION_BACKEND", "files")
	if err := env.Parse(&cfg); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestSessionConfig_Sanitize(t *testing.T) {
	cfg := SessionConfig{TTL: -time.Second, PurgeInterval: time.Second}
	cfg.Sanitize()

	if cfg.Backend != StorageMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Backend)
	}
	if cfg.TTL != 0 {
		t.Fatalf("expected negative TTL to clamp to zero, got %v", cfg.TTL)
	}
	if cfg.TabIdleTTL != 30*time.Minute {
		t.Fatalf("expected default idle TTL, got %v", cfg.TabIdleTTL)
	}
	if cfg.PurgeInterval != time.Minute {
		t.Fatalf("expected purge interval floor, got %v", cfg.PurgeInterval)
	}
	if cfg.MaxTabs != 10000 {
		t.Fatalf("expected default max tabs, got %d", cfg.MaxTabs)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{}
	cfg.Sanitize()
	if cfg.Addr != ":8080" || cfg.WriteTimeout != time.Minute || cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("unexpected http config: %+v", cfg)
	}
}

func TestAppConfig_DevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{LogLevel: "LOUD"}
	cfg.Sanitize()
	if !cfg.IsDev {
		t.Fatal("expected NODE_ENV=development to enable dev mode")
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected unknown level to fall back to info, got %q", cfg.LogLevel)
	}
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := DBConfig{Host: "db", Port: 5433, User: "u", Password: "p@ss word", Name: "n", SSLMode: "require"}
	want := "postgres://u:p%40ss%20word@db:5433/n?sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
		Prefix:        ".dashboard.",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
	if cfg.Prefix != "dashboard" {
		t.Fatalf("expected prefix dots to be trimmed, got %q", cfg.Prefix)
	}
}
