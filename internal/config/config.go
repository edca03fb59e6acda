package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const devSessionSecret = "spotted-dev-session-secret"

// Transaction modes for USE_TRANSACTIONS. TransactionsAuto asks the server at
// startup whether it can run multi-document transactions.
const (
	TransactionsAuto = "auto"
	TransactionsOn   = "on"
	TransactionsOff  = "off"
)

type Config struct {
	Env             string
	Port            string
	MongoURI        string
	DBName          string
	CORSOrigins     []string
	SessionSecret   string
	SessionTTL      time.Duration
	SessionCookie   string
	CookieSecure    bool
	Transactions    string
	RequestTimeout  time.Duration
	StaticDir       string
	Media           MediaConfig
}

// MediaConfig points at the S3-compatible bucket spot images are relayed to.
type MediaConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Enabled reports whether enough is configured to reach the bucket.
func (m MediaConfig) Enabled() bool {
	return m.Bucket != "" && m.AccessKey != "" && m.SecretKey != ""
}

// Load reads .env (if any) and the process environment.
func Load(logger *zap.Logger) Config {
	if err := godotenv.Load(); err != nil {
		logger.Info(".env not loaded", zap.Error(err))
	}

	cfg := Config{
		Env:             getEnvOrDefault("APP_ENV", "development"),
		Port:            getEnvOrDefault("PORT", "5000"),
		MongoURI:        getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:          getEnvOrDefault("DB_NAME", "spotted"),
		CORSOrigins:     getListEnv("CORS_ORIGINS", []string{"http://localhost:3000"}),
		SessionSecret:   getEnvOrDefault("SESSION_SECRET", ""),
		SessionTTL:      getDurationEnv("SESSION_TTL_DAYS", 7, 24*time.Hour),
		SessionCookie:   getEnvOrDefault("SESSION_COOKIE", "spotted.sid"),
		CookieSecure:    getBoolEnv("COOKIE_SECURE", false),
		Transactions:    getTransactionMode("USE_TRANSACTIONS", logger),
		RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", 5, time.Second),
		StaticDir:       getEnvOrDefault("STATIC_DIR", ""),
		Media: MediaConfig{
			Endpoint:  getEnvOrDefault("MEDIA_ENDPOINT", ""),
			Region:    getEnvOrDefault("MEDIA_REGION", "auto"),
			Bucket:    getEnvOrDefault("MEDIA_BUCKET", ""),
			AccessKey: getEnvOrDefault("MEDIA_ACCESS_KEY", ""),
			SecretKey: getEnvOrDefault("MEDIA_SECRET_KEY", ""),
			PublicURL: strings.TrimRight(getEnvOrDefault("MEDIA_PUBLIC_URL", ""), "/"),
		},
	}

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			logger.Fatal("SESSION_SECRET is required in production")
		}
		logger.Warn("SESSION_SECRET not set, using development secret")
		cfg.SessionSecret = devSessionSecret
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getTransactionMode accepts "auto" or any boolean spelling strconv.ParseBool
// understands. Anything else falls back to auto.
func getTransactionMode(key string, logger *zap.Logger) string {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" || value == TransactionsAuto {
		return TransactionsAuto
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logger.Warn("unrecognised transaction mode, using auto", zap.String("key", key), zap.String("value", value))
		return TransactionsAuto
	}
	if parsed {
		return TransactionsOn
	}
	return TransactionsOff
}

func getListEnv(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
