// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, the upstream meal API, sync
// schedules, rate limiting, and observability.
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "mensa-api")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AuthConfig holds the static sync token and the visitor-token signing key.
type AuthConfig struct {
	APIBearerToken string        // API_BEARER_TOKEN; empty disables /api/sync
	JWTSecret      string        // JWT_SECRET
	JWTAlgorithm   string        // JWT_ALGORITHM (HS256|HS384|HS512)
	UserTokenTTL   time.Duration // USER_TOKEN_TTL
	SecureCookie   bool          // COOKIE_SECURE
}

// MensaAPIConfig configures the upstream meal plan API client.
type MensaAPIConfig struct {
	BaseURL string        // MENSA_API_BASE_URL
	Timeout time.Duration // MENSA_API_TIMEOUT
}

// SyncConfig configures scheduled reconciliation passes.
type SyncConfig struct {
	Enabled     bool   // SYNC_ENABLED
	Timezone    string // SYNC_TIMEZONE (IANA)
	RefreshCron string // SYNC_REFRESH_CRON
	FullCron    string // SYNC_FULL_CRON
	WindowDays  int    // SYNC_WINDOW_DAYS, days after today fetched by a full sync
	PublicURL   string // PUBLIC_URL; when set, schedules call the HTTP trigger
}

// TelegramConfig configures the anomaly/feedback notification channel.
type TelegramConfig struct {
	BotToken string // TELEGRAM_BOT_TOKEN
	ChatID   string // TELEGRAM_CHAT_ID
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s (full sync runs inside a request)
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // graceful shutdown budget
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DatabaseURL string // DATABASE_URL (Postgres DSN); empty selects SQLite
	DBPath      string // SQLite path

	// Search
	SearchMinScore float64 // minimum Jaccard score for meal search hits [0,1]

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	Auth     AuthConfig
	MensaAPI MensaAPIConfig
	Sync     SyncConfig
	Telegram TelegramConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DatabaseURL: getenv("DATABASE_URL", ""),
		DBPath:      getenv("DB_PATH", "mensa.db"),

		SearchMinScore: getfloat("SEARCH_MIN_SCORE", 0.1),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		Auth: AuthConfig{
			APIBearerToken: getenv("API_BEARER_TOKEN", ""),
			JWTSecret:      getenv("JWT_SECRET", ""),
			JWTAlgorithm:   strings.ToUpper(getenv("JWT_ALGORITHM", "HS256")),
			UserTokenTTL:   getdur("USER_TOKEN_TTL", 365*24*time.Hour),
			SecureCookie:   getbool("COOKIE_SECURE", true),
		},
		MensaAPI: MensaAPIConfig{
			BaseURL: strings.TrimRight(getenv("MENSA_API_BASE_URL", "https://meine-mensa.de/api"), "/"),
			Timeout: getdur("MENSA_API_TIMEOUT", 30*time.Second),
		},
		Sync: SyncConfig{
			Enabled:     getbool("SYNC_ENABLED", true),
			Timezone:    getenv("SYNC_TIMEZONE", "Europe/Berlin"),
			RefreshCron: getenv("SYNC_REFRESH_CRON", "17,47 6-16 * * 1-5"),
			FullCron:    getenv("SYNC_FULL_CRON", "17 2 * * 0-4"),
			WindowDays:  getint("SYNC_WINDOW_DAYS", 7),
			PublicURL:   strings.TrimRight(getenv("PUBLIC_URL", ""), "/"),
		},
		Telegram: TelegramConfig{
			BotToken: getenv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getenv("TELEGRAM_CHAT_ID", ""),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "mensa-api"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.DatabaseURL == "" && strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty when DATABASE_URL is unset")
	}
	if cfg.SearchMinScore < 0 || cfg.SearchMinScore > 1 {
		return cfg, errors.New("SEARCH_MIN_SCORE must be between 0 and 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	switch cfg.Auth.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return cfg, errors.New("JWT_ALGORITHM must be one of: HS256, HS384, HS512")
	}
	if cfg.Auth.UserTokenTTL <= 0 {
		return cfg, errors.New("USER_TOKEN_TTL must be > 0")
	}
	if u, err := url.Parse(cfg.MensaAPI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return cfg, errors.New("MENSA_API_BASE_URL must be an absolute URL")
	}
	if cfg.MensaAPI.Timeout <= 0 {
		return cfg, errors.New("MENSA_API_TIMEOUT must be > 0")
	}
	if cfg.Sync.WindowDays < 0 {
		return cfg, errors.New("SYNC_WINDOW_DAYS must be >= 0")
	}
	if cfg.Sync.Enabled {
		if _, err := time.LoadLocation(cfg.Sync.Timezone); err != nil {
			return cfg, errors.New("SYNC_TIMEZONE must be a valid IANA time zone")
		}
		if cfg.Sync.PublicURL != "" && cfg.Auth.APIBearerToken == "" {
			return cfg, errors.New("API_BEARER_TOKEN is required when PUBLIC_URL schedules the HTTP sync trigger")
		}
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// UsesPostgres reports whether the Postgres driver should be used.
func (c Config) UsesPostgres() bool { return strings.TrimSpace(c.DatabaseURL) != "" }

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
