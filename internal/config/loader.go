package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TIMETABLE_"

// Store backends accepted by TIMETABLE_STORE.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config captures the settings of the timetable service.
type Config struct {
	HTTPPort        int
	ShutdownTimeout time.Duration

	Store         string
	SQLiteDSN     string
	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	GridCacheTTL  time.Duration

	SessionTTL        time.Duration
	Location          *time.Location
	LoginRateLimit    int
	CORSOrigins       []string
	RosterConcurrency int

	LogFormat string
	LogLevel  string
}

// Load reads configuration from, in increasing precedence, the YAML file named
// by TIMETABLE_CONFIG_FILE, the dotenv file named by TIMETABLE_ENV_FILE
// (default ".env") and the process environment. Every key carries the
// TIMETABLE_ prefix in the environment and drops it, lower-cased, in YAML.
//
// Missing and invalid keys are reported together in one error.
func Load() (Config, error) {
	values, err := layeredValues(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	return parse(values)
}

type lookupFunc func(key string) (string, bool)

func layeredValues(env lookupFunc) (lookupFunc, error) {
	fileValues := map[string]string{}
	if path, ok := env(envPrefix + "CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return nil, fmt.Errorf("設定檔讀取失敗: %w", err)
		}
		raw := map[string]string{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("設定檔格式不正確: %w", err)
		}
		for key, value := range raw {
			fileValues[envPrefix+strings.ToUpper(key)] = value
		}
	}

	envFile := ".env"
	if path, ok := env(envPrefix + "ENV_FILE"); ok && strings.TrimSpace(path) != "" {
		envFile = strings.TrimSpace(path)
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("環境檔讀取失敗: %w", err)
		}
		dotenv = map[string]string{}
	}

	return func(key string) (string, bool) {
		if v, ok := env(key); ok {
			return v, true
		}
		if v, ok := dotenv[key]; ok {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	}, nil
}

func parse(lookup lookupFunc) (Config, error) {
	cfg := Config{
		HTTPPort:          8080,
		ShutdownTimeout:   10 * time.Second,
		Store:             StoreMemory,
		GridCacheTTL:      30 * time.Second,
		SessionTTL:        24 * time.Hour,
		LoginRateLimit:    10,
		RosterConcurrency: 8,
		LogFormat:         "text",
		LogLevel:          "info",
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	get := func(name string) string {
		v, _ := lookup(envPrefix + name)
		return strings.TrimSpace(v)
	}
	positiveInt := func(name string, dst *int, allowZero bool) {
		raw := get(name)
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || (n == 0 && !allowZero) {
			invalid = append(invalid, envPrefix+name)
			return
		}
		*dst = n
	}
	positiveDuration := func(name string, dst *time.Duration) {
		raw := get(name)
		if raw == "" {
			return
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			invalid = append(invalid, envPrefix+name)
			return
		}
		*dst = d
	}

	positiveInt("HTTP_PORT", &cfg.HTTPPort, false)
	positiveDuration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	if store := strings.ToLower(get("STORE")); store != "" {
		cfg.Store = store
	}
	cfg.SQLiteDSN = get("SQLITE_DSN")
	cfg.MongoURI = get("MONGO_URI")
	cfg.MongoDatabase = get("MONGO_DATABASE")
	switch cfg.Store {
	case StoreMemory:
	case StoreSQLite:
		if cfg.SQLiteDSN == "" {
			missing = append(missing, envPrefix+"SQLITE_DSN")
		}
	case StoreMongo:
		if cfg.MongoURI == "" {
			missing = append(missing, envPrefix+"MONGO_URI")
		}
		if cfg.MongoDatabase == "" {
			missing = append(missing, envPrefix+"MONGO_DATABASE")
		}
	default:
		invalid = append(invalid, envPrefix+"STORE")
	}

	cfg.RedisAddr = get("REDIS_ADDR")
	cfg.RedisPassword = get("REDIS_PASSWORD")
	positiveInt("REDIS_DB", &cfg.RedisDB, true)
	positiveDuration("GRID_CACHE_TTL", &cfg.GridCacheTTL)

	positiveDuration("SESSION_TTL", &cfg.SessionTTL)
	positiveInt("LOGIN_RATE_LIMIT", &cfg.LoginRateLimit, true)
	positiveInt("ROSTER_CONCURRENCY", &cfg.RosterConcurrency, false)

	timezone := get("TIMEZONE")
	if timezone == "" {
		timezone = "Asia/Taipei"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		invalid = append(invalid, envPrefix+"TIMEZONE")
	} else {
		cfg.Location = loc
	}

	if origins := get("CORS_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	if format := strings.ToLower(get("LOG_FORMAT")); format != "" {
		if format != "text" && format != "json" {
			invalid = append(invalid, envPrefix+"LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}
	if level := strings.ToLower(get("LOG_LEVEL")); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, envPrefix+"LOG_LEVEL")
		}
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("缺少必要的設定值: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Errorf("設定值不正確: %s", strings.Join(invalid, ", ")))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}
