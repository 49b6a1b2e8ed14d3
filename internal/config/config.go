package config

import (
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// HTTP
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Ledger read limits
	FeedLimit               int
	LeaderboardLimit        int
	DashboardSacrificeLimit int

	// Observability (optional)
	SentryDSN   string
	MetricsUser string
	MetricsPass string

	SeedDemoData bool
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Stash"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:  strings.TrimRight(envRequired("APP_URL"), "/"),
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/savings.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 24*time.Hour),

		// OAuth
		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),

		// HTTP
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       envFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     envInt("RATE_LIMIT_BURST", 30),

		// Ledger
		FeedLimit:               envInt("FEED_LIMIT", 20),
		LeaderboardLimit:        envInt("LEADERBOARD_LIMIT", 10),
		DashboardSacrificeLimit: envInt("DASHBOARD_SACRIFICE_LIMIT", 5),

		// Observability
		SentryDSN:   envString("SENTRY_DSN", ""),
		MetricsUser: envString("METRICS_USER", ""),
		MetricsPass: envString("METRICS_PASS", ""),

		SeedDemoData: envBool("SEED_DEMO_DATA", false),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures sign-in and metrics protection are configured.
func validateProduction(cfg *Config) {
	missing := cfg.MissingForProduction()
	if len(missing) > 0 {
		slog.Error("production deployment requires configuration",
			"missing", missing,
			"hint", "set APP_ENV=development for local testing")
		os.Exit(1)
	}
}

// MissingForProduction lists the keys a production deployment must set.
func (c *Config) MissingForProduction() []string {
	required := map[string]string{
		"GOOGLE_CLIENT_ID":     c.GoogleClientID,
		"GOOGLE_CLIENT_SECRET": c.GoogleClientSecret,
		"METRICS_USER":         c.MetricsUser,
		"METRICS_PASS":         c.MetricsPass,
	}
	keys := lo.Filter(lo.Keys(required), func(k string, _ int) bool {
		return required[k] == ""
	})
	slices.Sort(keys)
	return keys
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		slog.Warn("config invalid number, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList reads a comma separated list, dropping blank items.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	items := lo.FilterMap(strings.Split(v, ","), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
	if len(items) == 0 {
		return def
	}
	return items
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GoogleRedirectURL is the OAuth callback registered with Google.
func (c *Config) GoogleRedirectURL() string {
	return c.AppURL + "/auth/google/callback"
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets and credentials are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:                 c.AppName,
		AppEnv:                  c.AppEnv,
		AppURL:                  c.AppURL,
		Port:                    c.Port,
		DBDriver:                c.DBDriver,
		GoogleClientID:          c.GoogleClientID,
		CORSAllowedOrigins:      c.CORSAllowedOrigins,
		FeedLimit:               c.FeedLimit,
		LeaderboardLimit:        c.LeaderboardLimit,
		DashboardSacrificeLimit: c.DashboardSacrificeLimit,
	}
}
