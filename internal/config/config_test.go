package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"COMMS_URL", "SERVICE_NAME", "JAXON_DISPATCH_SUBJECT", "JAXON_UPLOAD_SUBJECT",
	"JAXON_OPTIONS_FILE", "JAXON_REQUEST_TIMEOUT",
	"UPLOAD_STORE", "UPLOAD_STORE_PATH", "UPLOAD_TOKEN_SECRET", "UPLOAD_TOKEN_TTL", "UPLOAD_PURGE_INTERVAL",
	"DATABASE_URL", "RUN_MIGRATIONS", "MIGRATION_PATH",
	"JAXON_HTTP_ADDR", "HTTP_PORT", "HEALTH_CHECK_TIMEOUT", "JAXON_DEMO",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets envVars for the duration of the test. An empty value
// would count as set and bypass the defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envVars {
		if prev, ok := os.LookupEnv(env); ok {
			os.Unsetenv(env)
			t.Cleanup(func() { os.Setenv(env, prev) })
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}

	if cfg.COMMSURL != "" {
		t.Errorf("config:config_test - COMMSURL = %q, want empty", cfg.COMMSURL)
	}
	if cfg.COMMSName != "jaxon" {
		t.Errorf("config:config_test - COMMSName = %q, want %q", cfg.COMMSName, "jaxon")
	}
	if cfg.RequestTimeout != 25*time.Second {
		t.Errorf("config:config_test - RequestTimeout = %v, want 25s", cfg.RequestTimeout)
	}
	if cfg.UploadStore != StoreFile || cfg.UploadStorePath != "var/upload-records" {
		t.Errorf("config:config_test - upload store = %q at %q", cfg.UploadStore, cfg.UploadStorePath)
	}
	if cfg.UploadTTL != 10*time.Minute || cfg.PurgeInterval != 5*time.Minute {
		t.Errorf("config:config_test - UploadTTL = %v PurgeInterval = %v", cfg.UploadTTL, cfg.PurgeInterval)
	}
	if cfg.RunMigrations {
		t.Error("config:config_test - expected RunMigrations=false by default")
	}
	if cfg.MigrationPath != "migrations" {
		t.Errorf("config:config_test - MigrationPath = %q, want %q", cfg.MigrationPath, "migrations")
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("config:config_test - Addr() = %q, want :8080", cfg.Addr())
	}
	if !cfg.Demo {
		t.Error("config:config_test - expected Demo=true by default")
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("config:config_test - LogLevel = %q LogFormat = %q", cfg.LogLevel, cfg.LogFormat)
	}
	if err := cfg.ValidateForServe(); err != nil {
		t.Errorf("config:config_test - defaults do not validate: %v", err)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	overrides := map[string]string{
		"COMMS_URL":           "nats://custom:4222",
		"UPLOAD_STORE":        "sqlite",
		"UPLOAD_STORE_PATH":   "/tmp/uploads.db",
		"UPLOAD_TOKEN_SECRET": "s3cret",
		"UPLOAD_TOKEN_TTL":    "1h",
		"JAXON_HTTP_ADDR":     "127.0.0.1:9090",
		"JAXON_DEMO":          "false",
		"LOG_FORMAT":          "json",
	}
	for key, val := range overrides {
		t.Setenv(key, val)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("config:config_test - unexpected error: %v", err)
	}
	if cfg.COMMSURL != "nats://custom:4222" {
		t.Errorf("config:config_test - COMMSURL = %q", cfg.COMMSURL)
	}
	if cfg.UploadStore != StoreSQLite || cfg.UploadStorePath != "/tmp/uploads.db" || cfg.UploadSecret != "s3cret" {
		t.Errorf("config:config_test - upload config = %+v", cfg)
	}
	if cfg.UploadTTL != time.Hour {
		t.Errorf("config:config_test - UploadTTL = %v, want 1h", cfg.UploadTTL)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Errorf("config:config_test - Addr() = %q", cfg.Addr())
	}
	if cfg.Demo || cfg.LogFormat != "json" {
		t.Errorf("config:config_test - Demo = %v LogFormat = %q", cfg.Demo, cfg.LogFormat)
	}
}

func TestValidateForServe(t *testing.T) {
	valid := func() *Config {
		return &Config{
			UploadStore:        StoreFile,
			UploadStorePath:    "records",
			UploadTTL:          time.Minute,
			RequestTimeout:     time.Second,
			HealthCheckTimeout: time.Second,
			LogFormat:          "text",
			DatabaseURL:        "postgres://localhost/jaxon",
		}
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"postgres store", func(c *Config) { c.UploadStore = StorePostgres }, ""},
		{"postgres without url", func(c *Config) { c.UploadStore = StorePostgres; c.DatabaseURL = "" }, "DATABASE_URL"},
		{"unknown store", func(c *Config) { c.UploadStore = "redis" }, "UPLOAD_STORE"},
		{"missing path", func(c *Config) { c.UploadStorePath = "" }, "UPLOAD_STORE_PATH"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "JAXON_REQUEST_TIMEOUT"},
		{"zero health timeout", func(c *Config) { c.HealthCheckTimeout = 0 }, "HEALTH_CHECK_TIMEOUT"},
		{"zero ttl", func(c *Config) { c.UploadTTL = 0 }, "UPLOAD_TOKEN_TTL"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.ValidateForServe()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("config:config_test - unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("config:config_test - error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForDB(t *testing.T) {
	if err := (&Config{}).ValidateForDB(); err == nil {
		t.Error("config:config_test - expected error for empty DATABASE_URL")
	}
	if err := (&Config{DatabaseURL: "postgres://localhost/jaxon"}).ValidateForDB(); err != nil {
		t.Errorf("config:config_test - unexpected error: %v", err)
	}
}
