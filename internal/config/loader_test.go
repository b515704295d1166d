package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func mapLookup(values map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(mapLookup(nil))
		if err != nil {
			t.Fatalf("parse returned error: %v", err)
		}
		if cfg.HTTPPort != 8080 || cfg.Store != StoreMemory {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
		if cfg.SessionTTL != 24*time.Hour || cfg.GridCacheTTL != 30*time.Second {
			t.Fatalf("unexpected durations: %+v", cfg)
		}
		if cfg.Location == nil || cfg.Location.String() != "Asia/Taipei" {
			t.Fatalf("expected Asia/Taipei, got %v", cfg.Location)
		}
		if cfg.LoginRateLimit != 10 || cfg.RosterConcurrency != 8 {
			t.Fatalf("unexpected limits: %+v", cfg)
		}
	})

	t.Run("errors when store specific values are missing", func(t *testing.T) {
		t.Parallel()

		_, err := parse(mapLookup(map[string]string{"TIMETABLE_STORE": "mongo"}))
		if err == nil {
			t.Fatal("expected error when mongo settings are missing")
		}
		expected := "缺少必要的設定值: TIMETABLE_MONGO_URI, TIMETABLE_MONGO_DATABASE"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("aggregates invalid values", func(t *testing.T) {
		t.Parallel()

		_, err := parse(mapLookup(map[string]string{
			"TIMETABLE_STORE":       "sqlite",
			"TIMETABLE_HTTP_PORT":   "-1",
			"TIMETABLE_SESSION_TTL": "forever",
			"TIMETABLE_TIMEZONE":    "Mars/Olympus",
			"TIMETABLE_LOG_LEVEL":   "loud",
		}))
		if err == nil {
			t.Fatal("expected error")
		}
		msg := err.Error()
		for _, want := range []string{"TIMETABLE_SQLITE_DSN", "TIMETABLE_HTTP_PORT", "TIMETABLE_SESSION_TTL", "TIMETABLE_TIMEZONE", "TIMETABLE_LOG_LEVEL"} {
			if !strings.Contains(msg, want) {
				t.Fatalf("expected %s in %q", want, msg)
			}
		}
	})

	t.Run("parses duration, numeric and list fields", func(t *testing.T) {
		t.Parallel()

		cfg, err := parse(mapLookup(map[string]string{
			"TIMETABLE_HTTP_PORT":          "9090",
			"TIMETABLE_STORE":              "SQLite",
			"TIMETABLE_SQLITE_DSN":         "/var/lib/timetable.db",
			"TIMETABLE_SESSION_TTL":        "72h",
			"TIMETABLE_LOGIN_RATE_LIMIT":   "0",
			"TIMETABLE_CORS_ORIGINS":       "https://a.example, ,https://b.example",
			"TIMETABLE_REDIS_ADDR":         "localhost:6379",
			"TIMETABLE_REDIS_DB":           "2",
			"TIMETABLE_ROSTER_CONCURRENCY": "4",
			"TIMETABLE_LOG_FORMAT":         "JSON",
		}))
		if err != nil {
			t.Fatalf("parse returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.Store != StoreSQLite || cfg.SQLiteDSN != "/var/lib/timetable.db" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.SessionTTL != 72*time.Hour || cfg.LoginRateLimit != 0 || cfg.RosterConcurrency != 4 {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
			t.Fatalf("unexpected origins: %#v", cfg.CORSOrigins)
		}
		if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 || cfg.LogFormat != "json" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	})
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "timetable.yaml")
	if err := os.WriteFile(yamlPath, []byte("http_port: 7000\nstore: sqlite\nsqlite_dsn: from-yaml.db\nlog_level: warn\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("TIMETABLE_SQLITE_DSN=from-dotenv.db\nTIMETABLE_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	t.Setenv("TIMETABLE_CONFIG_FILE", yamlPath)
	t.Setenv("TIMETABLE_ENV_FILE", envPath)
	t.Setenv("TIMETABLE_LOG_LEVEL", "error")
	for _, key := range []string{"TIMETABLE_HTTP_PORT", "TIMETABLE_STORE", "TIMETABLE_SQLITE_DSN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 7000 || cfg.Store != StoreSQLite {
		t.Fatalf("expected yaml values, got %+v", cfg)
	}
	if cfg.SQLiteDSN != "from-dotenv.db" {
		t.Fatalf("expected dotenv to override yaml, got %q", cfg.SQLiteDSN)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("expected environment to override dotenv, got %q", cfg.LogLevel)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("TIMETABLE_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("TIMETABLE_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}
