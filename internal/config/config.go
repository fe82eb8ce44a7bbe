package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/devlevel/internal/middleware"
	"github.com/soaringjerry/devlevel/internal/services"
	"github.com/soaringjerry/devlevel/internal/utils"
)

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
	StaticDir       string        `yaml:"staticDir"`
	DefaultLocale   string        `yaml:"defaultLocale"`

	// TrustProxyHeaders keys rate limits by X-Real-IP / X-Forwarded-For.
	TrustProxyHeaders bool `yaml:"trustProxyHeaders"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver"`
	Path          string `yaml:"path"`
	MigrationsDir string `yaml:"migrationsDir"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwtSecret"`
	TokenTTL     time.Duration `yaml:"tokenTTL"`
	CookieName   string        `yaml:"cookieName"`
	CookieSecure bool          `yaml:"cookieSecure"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

type GamificationConfig struct {
	Points       services.PointRules `yaml:"points"`
	Level        services.LevelCurve `yaml:"level"`
	WeeklyWindow int                 `yaml:"weeklyWindow"`
	Timezone     string              `yaml:"timezone"`
}

type LimitsConfig struct {
	EntryListDefault      int `yaml:"entryListDefault"`
	EntryListMax          int `yaml:"entryListMax"`
	ReflectionListDefault int `yaml:"reflectionListDefault"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	LogRequests bool   `yaml:"logRequests"`
}

type BuildInfo struct {
	Commit    string `yaml:"-"`
	BuildTime string `yaml:"-"`
}

type Config struct {
	Server       ServerConfig                    `yaml:"server"`
	Storage      StorageConfig                   `yaml:"storage"`
	Auth         AuthConfig                      `yaml:"auth"`
	Log          LogConfig                       `yaml:"log"`
	Gamification GamificationConfig              `yaml:"gamification"`
	Limits       LimitsConfig                    `yaml:"limits"`
	RateLimits   map[string]middleware.RateLimit `yaml:"rateLimits"`
	Metrics      MetricsConfig                   `yaml:"metrics"`
	Build        BuildInfo                       `yaml:"-"`
}

const devSecret = "devlevel-dev-secret"

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			DefaultLocale:   "en",
		},
		Storage: StorageConfig{Driver: StorageSQLite, Path: "devlevel.db"},
		Auth: AuthConfig{
			JWTSecret:  devSecret,
			TokenTTL:   7 * 24 * time.Hour,
			CookieName: middleware.DefaultCookieName,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Gamification: GamificationConfig{
			Points:       services.DefaultPointRules(),
			Level:        services.DefaultLevelCurve(),
			WeeklyWindow: 8,
			Timezone:     "UTC",
		},
		Limits: LimitsConfig{EntryListDefault: 100, EntryListMax: 1000, ReflectionListDefault: 20},
		RateLimits: map[string]middleware.RateLimit{
			"login":    {Requests: 10, Window: 15 * time.Minute},
			"register": {Requests: 5, Window: 15 * time.Minute},
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics", LogRequests: true},
	}
}

// Load reads path over the defaults, applies DEVLEVEL_* environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	cfg.Server.Addr = utils.SafeEnv("DEVLEVEL_ADDR", cfg.Server.Addr)
	cfg.Server.StaticDir = utils.SafeEnv("DEVLEVEL_STATIC_DIR", cfg.Server.StaticDir)
	cfg.Server.TrustProxyHeaders = utils.SafeEnvBool("DEVLEVEL_TRUST_PROXY_HEADERS", cfg.Server.TrustProxyHeaders)
	cfg.Storage.Driver = utils.SafeEnv("DEVLEVEL_STORAGE", cfg.Storage.Driver)
	cfg.Storage.Path = utils.SafeEnv("DEVLEVEL_DB_PATH", cfg.Storage.Path)
	cfg.Auth.JWTSecret = utils.SafeEnv("DEVLEVEL_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = utils.SafeEnvDuration("DEVLEVEL_TOKEN_TTL", cfg.Auth.TokenTTL)
	cfg.Log.Dir = utils.SafeEnv("DEVLEVEL_LOG_DIR", cfg.Log.Dir)
	cfg.Log.Level = utils.SafeEnv("DEVLEVEL_LOG_LEVEL", cfg.Log.Level)
	cfg.Gamification.Timezone = utils.SafeEnv("DEVLEVEL_TIMEZONE", cfg.Gamification.Timezone)
	cfg.Gamification.WeeklyWindow = utils.SafeEnvInt("DEVLEVEL_WEEKLY_WINDOW", cfg.Gamification.WeeklyWindow)
	cfg.Build.Commit = utils.SafeEnv("DEVLEVEL_COMMIT", cfg.Build.Commit)
	cfg.Build.BuildTime = utils.SafeEnv("DEVLEVEL_BUILD_TIME", cfg.Build.BuildTime)
}

func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	switch cfg.Storage.Driver {
	case StorageSQLite:
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite driver")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("storage.driver %q must be %s or %s", cfg.Storage.Driver, StorageSQLite, StorageMemory)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret cannot be empty")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.tokenTTL must be positive")
	}
	p := cfg.Gamification.Points
	for name, v := range map[string]int{
		"deepWorkBlock":          p.DeepWorkBlock,
		"incidentResolved":       p.IncidentResolved,
		"appliedLearning":        p.AppliedLearning,
		"largeTaskCompleted":     p.LargeTaskCompleted,
		"largeTaskMinDifficulty": p.LargeTaskMinDifficulty,
		"interruptionManaged":    p.InterruptionManaged,
	} {
		if v < 0 {
			return fmt.Errorf("gamification.points.%s cannot be negative", name)
		}
	}
	if cfg.Gamification.Level.BaseXP < 1 {
		return fmt.Errorf("gamification.level.baseXP must be at least 1")
	}
	if cfg.Gamification.Level.Exponent <= 0 {
		return fmt.Errorf("gamification.level.exponent must be positive")
	}
	if cfg.Gamification.WeeklyWindow < 1 {
		return fmt.Errorf("gamification.weeklyWindow must be at least 1")
	}
	if _, err := time.LoadLocation(cfg.Gamification.Timezone); err != nil {
		return fmt.Errorf("gamification.timezone: %w", err)
	}
	if cfg.Limits.EntryListDefault < 1 || cfg.Limits.EntryListMax < 1 || cfg.Limits.ReflectionListDefault < 1 {
		return fmt.Errorf("limits must be at least 1")
	}
	if cfg.Limits.EntryListMax < cfg.Limits.EntryListDefault {
		return fmt.Errorf("limits.entryListMax must not be below limits.entryListDefault")
	}
	for key, rl := range cfg.RateLimits {
		if rl.Requests < 0 || rl.Window < 0 {
			return fmt.Errorf("rateLimits.%s cannot be negative", key)
		}
	}
	return nil
}

// Location resolves the gamification timezone. Validate has already checked it.
func (cfg Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.Gamification.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// InsecureSecret reports whether the built-in development secret is in use.
func (cfg Config) InsecureSecret() bool {
	return cfg.Auth.JWTSecret == devSecret
}
