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
	Server   ServerConfig
	Horde    HordeConfig
	Poller   PollerConfig
	Registry RegistryConfig
	Redis    RedisConfig
	Database DatabaseConfig
	App      AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type HordeConfig struct {
	BaseURL         string
	APIKey          string
	ClientAgent     string
	SubmitPerMinute int
}

type PollerConfig struct {
	Interval  time.Duration
	MaxJobAge time.Duration
	JobTTL    time.Duration
}

type RegistryConfig struct {
	ReferenceURL string
	RefreshSpec  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsSlice("CORS_ORIGINS", []string{"*"}),
		},
		Horde: HordeConfig{
			BaseURL:         getEnv("HORDE_BASE_URL", "https://stablehorde.net"),
			APIKey:          getEnv("HORDE_API_KEY", "0000000000"),
			ClientAgent:     getEnv("HORDE_CLIENT_AGENT", "stable-ui-backend:1.0:github.com/YRUSONOZ/stable-ui"),
			SubmitPerMinute: getEnvAsInt("HORDE_SUBMIT_PER_MINUTE", 10),
		},
		Poller: PollerConfig{
			Interval:  time.Duration(getEnvAsInt("POLL_INTERVAL_SECONDS", 3)) * time.Second,
			MaxJobAge: time.Duration(getEnvAsInt("JOB_MAX_AGE_MINUTES", 20)) * time.Minute,
			JobTTL:    time.Duration(getEnvAsInt("JOB_TTL_HOURS", 72)) * time.Hour,
		},
		Registry: RegistryConfig{
			ReferenceURL: getEnv("MODEL_REFERENCE_URL", "https://raw.githubusercontent.com/Haidra-Org/AI-Horde-image-model-reference/main/stable_diffusion.json"),
			RefreshSpec:  getEnv("MODEL_REFRESH_SPEC", "0 */10 * * * *"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "stableui"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Horde.BaseURL == "" {
		return fmt.Errorf("HORDE_BASE_URL is required")
	}

	if c.Horde.APIKey == "" {
		return fmt.Errorf("HORDE_API_KEY is required")
	}

	if c.Registry.ReferenceURL == "" {
		return fmt.Errorf("MODEL_REFERENCE_URL is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Poller.Interval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}

	return values
}
