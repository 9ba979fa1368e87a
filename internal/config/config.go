package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	TokenTTL    time.Duration
	SwaggerHost string
	LogLevel    string
	CORSOrigins []string
	ResetDB     bool

	DefaultPageSize int
	MaxPageSize     int
	// AuthRateLimit is the sustained requests per second allowed per client on /auth.
	AuthRateLimit float64

	AdminEmail       string
	AdminPassword    string
	AdminName        string
	SeedTemplatesURL string
}

// Load builds Config from environment with sensible defaults.
// Values from a local .env file are used when the variable is not already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		MySQLDSN:    getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/mailforge?charset=utf8mb4&parseTime=True&loc=UTC"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 24*time.Hour),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ResetDB:     os.Getenv("RESET_DB") == "true",

		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 12),
		MaxPageSize:     getEnvInt("MAX_PAGE_SIZE", 100),
		AuthRateLimit:   getEnvFloat("AUTH_RATE_LIMIT", 5),

		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@mailforge.local"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		AdminName:        getEnv("ADMIN_NAME", "Administrator"),
		SeedTemplatesURL: os.Getenv("SEED_TEMPLATES_URL"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
