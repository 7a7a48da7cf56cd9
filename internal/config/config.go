package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Generator GeneratorConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	Server    ServerConfig
	Logging   LoggingConfig
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type GeneratorConfig struct {
	Concurrency      int
	ItemTimeout      time.Duration
	PageHintsEnabled bool
	IconBaseURL      string
	RecordCacheTTL   time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type ServerConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-pro"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-5-mini"),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Generator: GeneratorConfig{
			Concurrency:      getEnvInt("GENERATOR_CONCURRENCY", 0),
			ItemTimeout:      time.Duration(getEnvInt("GENERATOR_ITEM_TIMEOUT_SECONDS", 0)) * time.Second,
			PageHintsEnabled: getEnvBool("PAGE_HINTS_ENABLED", false),
			IconBaseURL:      getEnv("ICON_BASE_URL", "https://playszgames.com/wp-content/uploads/thumbs/custom"),
			RecordCacheTTL:   time.Duration(getEnvInt("RECORD_CACHE_TTL_HOURS", 168)) * time.Hour,
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Enabled:  getEnvBool("POSTGRES_ENABLED", false),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "gamegen"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "gamegen"),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	if c.Generator.Concurrency < 0 {
		return fmt.Errorf("GENERATOR_CONCURRENCY must not be negative")
	}
	if c.Generator.ItemTimeout < 0 {
		return fmt.Errorf("GENERATOR_ITEM_TIMEOUT_SECONDS must not be negative")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}
	if c.Postgres.Enabled && c.Postgres.Host == "" {
		return fmt.Errorf("POSTGRES_HOST is required when POSTGRES_ENABLED is set")
	}
	return nil
}

// ValidateAI checks settings needed by commands that call the model.
func (c *Config) ValidateAI() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
