package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	API       APIConfig
	Session   SessionConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	S3        S3Config
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	// Proxies whose X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies []string
}

// APIConfig points the storefront at the external REST API.
type APIConfig struct {
	BaseURL          string
	Timeout          time.Duration
	ProductPageLimit int
	ReviewPageLimit  int
}

type SessionConfig struct {
	Secret    string
	IdleTTL   time.Duration
	SweepSpec string // cron spec for the idle state sweeper
	Secure    bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Auth string // ulule/limiter formatted rate, e.g. "10-M"
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Enabled reports whether analysis reports should be archived to S3.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "3000"),
			GinMode:        getEnv("GIN_MODE", "debug"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			TrustedProxies: parseSlice(getEnv("TRUSTED_PROXIES", "")),
		},
		API: APIConfig{
			BaseURL:          getEnv("API_BASE_URL", "http://localhost:5000/api/"),
			Timeout:          parseDuration(getEnv("API_TIMEOUT", "10s"), 10*time.Second),
			ProductPageLimit: parseInt(getEnv("PRODUCT_PAGE_LIMIT", "20"), 20),
			ReviewPageLimit:  parseInt(getEnv("REVIEW_PAGE_LIMIT", "10"), 10),
		},
		Session: SessionConfig{
			Secret:    getEnv("SESSION_SECRET", "change-me-session-secret"),
			IdleTTL:   parseDuration(getEnv("SESSION_IDLE_TTL", "30m"), 30*time.Minute),
			SweepSpec: getEnv("SESSION_SWEEP_SPEC", "@every 5m"),
			Secure:    getEnv("SESSION_COOKIE_SECURE", "false") == "true",
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		RateLimit: RateLimitConfig{
			Auth: getEnv("RATE_LIMIT_AUTH", "10-M"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("AWS_S3_REPORT_PREFIX", "analysis-reports"),
		},
	}

	if config.API.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL must not be empty")
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
