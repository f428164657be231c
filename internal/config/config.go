package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	BotToken     string
	DatabasePath string
	Host         string
	Port         string
	CSRFSecret   string
	CookieDomain string
	PublicURL    string

	CatalogPath              string
	StagePolicy              string
	ApplicationMessageMin    int
	ApplicationMessageMax    int
	RequireEmailVerification bool
	LogLevel                 zerolog.Level
	PageSize                 int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		DatabasePath: os.Getenv("DATABASE_PATH"),
		Host:         os.Getenv("HOST"),
		Port:         os.Getenv("PORT"),
		CSRFSecret:   os.Getenv("CSRF_SECRET"),
		CookieDomain: os.Getenv("COOKIE_DOMAIN"),
		PublicURL:    os.Getenv("PUBLIC_URL"),
		CatalogPath:  os.Getenv("CATALOG_PATH"),
		StagePolicy:  os.Getenv("STAGE_POLICY"),
	}

	if c.DatabasePath == "" {
		c.DatabasePath = "./nurcombinator.db"
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == "" {
		c.Port = "3000"
	}
	if c.CSRFSecret == "" {
		return nil, fmt.Errorf("CSRF_SECRET is required")
	}
	if c.CatalogPath == "" {
		c.CatalogPath = "catalog.yaml"
	}
	if c.StagePolicy == "" {
		c.StagePolicy = "free"
	}

	var err error
	if c.ApplicationMessageMin, err = intEnv("APPLICATION_MESSAGE_MIN", 50); err != nil {
		return nil, err
	}
	if c.ApplicationMessageMax, err = intEnv("APPLICATION_MESSAGE_MAX", 1200); err != nil {
		return nil, err
	}
	if c.ApplicationMessageMin < 0 || c.ApplicationMessageMax < c.ApplicationMessageMin {
		return nil, fmt.Errorf("APPLICATION_MESSAGE_MIN/MAX: invalid range %d..%d", c.ApplicationMessageMin, c.ApplicationMessageMax)
	}
	if c.PageSize, err = intEnv("PAGE_SIZE", 12); err != nil {
		return nil, err
	}
	if c.PageSize < 1 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive")
	}

	if v := os.Getenv("REQUIRE_EMAIL_VERIFICATION"); v != "" {
		if c.RequireEmailVerification, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("REQUIRE_EMAIL_VERIFICATION: %w", err)
		}
	}

	c.LogLevel = zerolog.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if c.LogLevel, err = zerolog.ParseLevel(v); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	return c, nil
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
