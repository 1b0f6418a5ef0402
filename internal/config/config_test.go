package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/")

	// Storage
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("SEARCH_MIN_SCORE", "0.5")

	// Rate limiting (invalid -> defaults)
	t.Setenv("RATE_RPS", "x")
	t.Setenv("RATE_BURST", "nope")

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// Auth / upstream / sync / telegram
	t.Setenv("API_BEARER_TOKEN", "s3cret")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("JWT_ALGORITHM", "hs512")
	t.Setenv("MENSA_API_BASE_URL", "https://example.org/api/")
	t.Setenv("MENSA_API_TIMEOUT", "5s")
	t.Setenv("SYNC_TIMEZONE", "UTC")
	t.Setenv("SYNC_REFRESH_CRON", "*/5 * * * *")
	t.Setenv("SYNC_WINDOW_DAYS", "3")
	t.Setenv("PUBLIC_URL", "https://mensa.example.org/")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.ShutdownTimeout != 5*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.DBPath != "db.sqlite" || cfg.UsesPostgres() || cfg.SearchMinScore != 0.5 {
		t.Fatalf("storage fields unexpected: %+v", cfg)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}
	if cfg.Auth.APIBearerToken != "s3cret" || cfg.Auth.JWTSecret != "jwt" || cfg.Auth.JWTAlgorithm != "HS512" {
		t.Fatalf("auth unexpected: %+v", cfg.Auth)
	}
	if cfg.MensaAPI.BaseURL != "https://example.org/api" || cfg.MensaAPI.Timeout != 5*time.Second {
		t.Fatalf("mensa api unexpected: %+v", cfg.MensaAPI)
	}
	if cfg.Sync.Timezone != "UTC" || cfg.Sync.RefreshCron != "*/5 * * * *" || cfg.Sync.FullCron != "17 2 * * 0-4" ||
		cfg.Sync.WindowDays != 3 || cfg.Sync.PublicURL != "https://mensa.example.org" {
		t.Fatalf("sync unexpected: %+v", cfg.Sync)
	}
	if cfg.Telegram.BotToken != "bot" || cfg.Telegram.ChatID != "42" {
		t.Fatalf("telegram unexpected: %+v", cfg.Telegram)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("API_BASE_PATH default expected '/api/v1', got %q", cfg.APIBasePath)
	}
	if cfg.MensaAPI.BaseURL != "https://meine-mensa.de/api" {
		t.Fatalf("unexpected upstream default %q", cfg.MensaAPI.BaseURL)
	}
	if cfg.Sync.Timezone != "Europe/Berlin" || cfg.Sync.RefreshCron != "17,47 6-16 * * 1-5" || cfg.Sync.WindowDays != 7 {
		t.Fatalf("unexpected sync defaults: %+v", cfg.Sync)
	}
	if cfg.Auth.APIBearerToken != "" {
		t.Fatalf("bearer token must default to empty")
	}
}

func TestLoad_DatabaseURLSelectsPostgres(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/mensa")
	t.Setenv("DB_PATH", "   ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.UsesPostgres() {
		t.Fatalf("expected UsesPostgres with DATABASE_URL set")
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"empty PORT", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"non-positive timeouts", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, "timeouts must be positive"},
		{"max header bytes", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"empty DB_PATH", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"search score", map[string]string{"SEARCH_MIN_SCORE": "1.5"}, "SEARCH_MIN_SCORE"},
		{"rate rps", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"rate burst", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"hsts", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"idempotency ttl", map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{"jwt algorithm", map[string]string{"JWT_ALGORITHM": "RS256"}, "JWT_ALGORITHM"},
		{"user token ttl", map[string]string{"USER_TOKEN_TTL": "0s"}, "USER_TOKEN_TTL"},
		{"upstream url", map[string]string{"MENSA_API_BASE_URL": "not a url"}, "MENSA_API_BASE_URL"},
		{"upstream timeout", map[string]string{"MENSA_API_TIMEOUT": "0s"}, "MENSA_API_TIMEOUT"},
		{"window days", map[string]string{"SYNC_WINDOW_DAYS": "-1"}, "SYNC_WINDOW_DAYS"},
		{"timezone", map[string]string{"SYNC_TIMEZONE": "Mars/Olympus"}, "SYNC_TIMEZONE"},
		{"http trigger without token", map[string]string{"PUBLIC_URL": "https://x.example"}, "API_BEARER_TOKEN"},
		{"otel ratio", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil || !containsErr(err, tc.want) {
				t.Fatalf("expected %s validation error, got: %v", tc.want, err)
			}
		})
	}
}

func TestLoad_DisabledSyncSkipsScheduleValidation(t *testing.T) {
	t.Setenv("SYNC_ENABLED", "false")
	t.Setenv("SYNC_TIMEZONE", "Mars/Olympus")
	t.Setenv("PUBLIC_URL", "https://x.example")
	if _, err := Load(); err != nil {
		t.Fatalf("disabled sync should not validate schedules: %v", err)
	}
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}
	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}
	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"} {
		k := "B_T_" + string(rune('a'+i))
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for i, v := range []string{"0", "false", "FALSE", " no ", "N", "off", "Off"} {
		k := "B_F_" + string(rune('a'+i))
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: got %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "DATABASE_URL", "API_BEARER_TOKEN", "PUBLIC_URL", "SYNC_ENABLED"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}
