// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSessionSecret is accepted outside production only.
const DefaultSessionSecret = "change-me-in-production"

// Config holds application configuration values loaded from the environment.
type Config struct {
	Port              string        `mapstructure:"APP_PORT"`
	Env               string        `mapstructure:"APP_ENV"`
	StoreDriver       string        `mapstructure:"STORE_DRIVER"`
	DatabaseDSN       string        `mapstructure:"DATABASE_DSN"`
	SessionSecret     string        `mapstructure:"SESSION_SECRET"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	CookieSecure      bool          `mapstructure:"COOKIE_SECURE"`
	AdminUsername     string        `mapstructure:"ADMIN_USERNAME"`
	AdminPassword     string        `mapstructure:"ADMIN_PASSWORD"`
	GroqAPIKey        string        `mapstructure:"GROQ_API_KEY"`
	GroqBaseURL       string        `mapstructure:"GROQ_BASE_URL"`
	GroqModel         string        `mapstructure:"GROQ_MODEL"`
	GenerationTimeout time.Duration `mapstructure:"GENERATION_TIMEOUT"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	RabbitMQURL       string        `mapstructure:"RABBITMQ_URL"`
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func setDefaults() {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("STORE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "blog.db")
	viper.SetDefault("SESSION_SECRET", DefaultSessionSecret)
	viper.SetDefault("SESSION_TTL", "24h")
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("ADMIN_USERNAME", "")
	viper.SetDefault("ADMIN_PASSWORD", "")
	viper.SetDefault("GROQ_API_KEY", "")
	viper.SetDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	viper.SetDefault("GROQ_MODEL", "llama3-70b-8192")
	viper.SetDefault("GENERATION_TIMEOUT", "60s")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("RABBITMQ_URL", "")
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	setDefaults()
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.StoreDriver = strings.ToLower(strings.TrimSpace(config.StoreDriver))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("APP_PORT is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	switch c.StoreDriver {
	case "postgres", "sqlite":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the %s store", c.StoreDriver)
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres, sqlite or memory, got %q", c.StoreDriver)
	}

	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	if c.IsProduction() {
		if c.SessionSecret == DefaultSessionSecret {
			return errors.New("SESSION_SECRET must be changed from the default value in production")
		}
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if c.StoreDriver == "memory" {
			return errors.New("the memory store cannot be used in production")
		}
		if !c.CookieSecure {
			log.Println("WARNING: COOKIE_SECURE is false in production. Session cookies will be sent over plain HTTP.")
		}
	} else if len(c.SessionSecret) < 32 {
		log.Println("WARNING: SESSION_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	if c.GroqAPIKey == "" {
		log.Println("WARNING: GROQ_API_KEY is not set. Content generation is disabled.")
	}
	return nil
}
