package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pitchside/lastman/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool
	CacheEnabled            bool
	CacheTTL                time.Duration
	CORSAllowedOrigins      []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration

	// GameTimezone anchors Monday week boundaries for every game.
	GameTimezone string
	GameLocation *time.Location

	// ResolverClaimGrace is how long a resolving claim may sit before
	// another worker is allowed to take it over.
	ResolverClaimGrace time.Duration
	// ResolverBudget bounds fixture lookups for a single round resolution.
	ResolverBudget time.Duration

	SchedulerMaxWorkers int

	InternalJobToken string

	FixtureFeedEnabled             bool
	FixtureFeedBaseURL             string
	FixtureFeedToken               string
	FixtureFeedTimeout             time.Duration
	FixtureFeedMaxRetries          int
	FixtureFeedCircuitEnabled      bool
	FixtureFeedCircuitFailureCount int
	FixtureFeedCircuitOpenTimeout  time.Duration
	FixtureFeedCircuitHalfOpenMax  int

	QStashEnabled       bool
	QStashBaseURL       string
	QStashToken         string
	QStashTargetBaseURL string
	QStashRetries       int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration

	LogLevel logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	gameTimezone := strings.TrimSpace(getEnv("GAME_TIMEZONE", "Europe/London"))
	gameLocation, err := time.LoadLocation(gameTimezone)
	if err != nil {
		return Config{}, fmt.Errorf("load GAME_TIMEZONE %q: %w", gameTimezone, err)
	}

	resolverClaimGrace, err := time.ParseDuration(getEnv("RESOLVER_CLAIM_GRACE", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RESOLVER_CLAIM_GRACE: %w", err)
	}
	if resolverClaimGrace <= 0 {
		return Config{}, fmt.Errorf("RESOLVER_CLAIM_GRACE must be > 0")
	}

	resolverBudget, err := time.ParseDuration(getEnv("RESOLVER_BUDGET", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RESOLVER_BUDGET: %w", err)
	}
	if resolverBudget <= 0 {
		return Config{}, fmt.Errorf("RESOLVER_BUDGET must be > 0")
	}

	schedulerMaxWorkers, err := getEnvAsInt("SCHEDULER_MAX_WORKERS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULER_MAX_WORKERS: %w", err)
	}
	if schedulerMaxWorkers < 1 {
		return Config{}, fmt.Errorf("SCHEDULER_MAX_WORKERS must be >= 1")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	fixtureFeedEnabled, err := strconv.ParseBool(getEnv("FIXTURE_FEED_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FIXTURE_FEED_ENABLED: %w", err)
	}
	fixtureFeedTimeout, err := time.ParseDuration(getEnv("FIXTURE_FEED_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FIXTURE_FEED_TIMEOUT: %w", err)
	}
	if fixtureFeedTimeout <= 0 {
		return Config{}, fmt.Errorf("FIXTURE_FEED_TIMEOUT must be > 0")
	}
	fixtureFeedMaxRetries, err := getEnvAsInt("FIXTURE_FEED_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse FIXTURE_FEED_MAX_RETRIES: %w", err)
	}
	if fixtureFeedMaxRetries < 0 {
		return Config{}, fmt.Errorf("FIXTURE_FEED_MAX_RETRIES must be >= 0")
	}
	fixtureFeedCircuitEnabled, err := strconv.ParseBool(getEnv("FIXTURE_FEED_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FIXTURE_FEED_CIRCUIT_ENABLED: %w", err)
	}
	fixtureFeedCircuitFailureCount, err := getEnvAsInt("FIXTURE_FEED_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse FIXTURE_FEED_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if fixtureFeedCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("FIXTURE_FEED_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	fixtureFeedCircuitOpenTimeout, err := time.ParseDuration(getEnv("FIXTURE_FEED_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FIXTURE_FEED_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if fixtureFeedCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("FIXTURE_FEED_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	fixtureFeedCircuitHalfOpenMax, err := getEnvAsInt("FIXTURE_FEED_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse FIXTURE_FEED_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if fixtureFeedCircuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("FIXTURE_FEED_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	fixtureFeedToken := strings.TrimSpace(getEnv("FIXTURE_FEED_TOKEN", ""))
	if fixtureFeedEnabled && fixtureFeedToken == "" {
		return Config{}, fmt.Errorf("FIXTURE_FEED_TOKEN is required when FIXTURE_FEED_ENABLED=true")
	}

	qstashEnabled, err := strconv.ParseBool(getEnv("QSTASH_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_ENABLED: %w", err)
	}
	qstashRetries, err := getEnvAsInt("QSTASH_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if qstashRetries < 0 {
		return Config{}, fmt.Errorf("QSTASH_RETRIES must be >= 0")
	}
	qstashToken := strings.TrimSpace(getEnv("QSTASH_TOKEN", ""))
	qstashTargetBaseURL := strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", ""))
	internalJobToken := strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", ""))
	if qstashEnabled {
		if qstashToken == "" {
			return Config{}, fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
		}
		if qstashTargetBaseURL == "" {
			return Config{}, fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
		}
		if internalJobToken == "" {
			return Config{}, fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
		}
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                  appEnv,
		ServiceName:             getEnv("APP_SERVICE_NAME", "lastman-api"),
		ServiceVersion:          getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                   strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary: dbDisablePreparedBinary,
		CacheEnabled:            cacheEnabled,
		CacheTTL:                cacheTTL,
		CORSAllowedOrigins:      splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:             readTimeout,
		WriteTimeout:            writeTimeout,

		GameTimezone: gameTimezone,
		GameLocation: gameLocation,

		ResolverClaimGrace: resolverClaimGrace,
		ResolverBudget:     resolverBudget,

		SchedulerMaxWorkers: schedulerMaxWorkers,

		InternalJobToken: internalJobToken,

		FixtureFeedEnabled:             fixtureFeedEnabled,
		FixtureFeedBaseURL:             strings.TrimSpace(getEnv("FIXTURE_FEED_BASE_URL", "https://api.football-data-hub.io/v2")),
		FixtureFeedToken:               fixtureFeedToken,
		FixtureFeedTimeout:             fixtureFeedTimeout,
		FixtureFeedMaxRetries:          fixtureFeedMaxRetries,
		FixtureFeedCircuitEnabled:      fixtureFeedCircuitEnabled,
		FixtureFeedCircuitFailureCount: fixtureFeedCircuitFailureCount,
		FixtureFeedCircuitOpenTimeout:  fixtureFeedCircuitOpenTimeout,
		FixtureFeedCircuitHalfOpenMax:  fixtureFeedCircuitHalfOpenMax,

		QStashEnabled:       qstashEnabled,
		QStashBaseURL:       strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io")),
		QStashToken:         qstashToken,
		QStashTargetBaseURL: qstashTargetBaseURL,
		QStashRetries:       qstashRetries,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: pyroscopeServerAddress,
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:    pyroscopeUploadRate,

		LogLevel: parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
