package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	DatabaseURL string
	RedisURL    string

	// SessionSecret verifies the identity provider's signed session tokens.
	SessionSecret string

	// RecaptchaSecret is only needed when at least one poll sets
	// require_recaptcha. Empty means every CAPTCHA-gated vote is rejected.
	RecaptchaSecret string

	AnalyticsURL   string
	AnalyticsToken string
	GeoAPIURL      string

	Env string
}

// Production reports whether the server runs with production error
// redaction (no stack traces in responses).
func (c Config) Production() bool {
	return c.Env == "production"
}

// ParseFlags validates flags and fills in environment fallbacks.
// A .env file in the working directory is loaded first, if present.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// Missing .env is fine; real deployments use actual env vars.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("pollify-api", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.RedisURL, "r", "", "Redis URL")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Session token secret (prefer env)")
	fs.StringVar(&cfg.RecaptchaSecret, "recaptcha-secret", "", "reCAPTCHA secret (prefer env)")

	fs.StringVar(&cfg.AnalyticsURL, "analytics-url", "", "Analytics sink ingest URL")
	fs.StringVar(&cfg.AnalyticsToken, "analytics-token", "", "Analytics sink token (prefer env)")
	fs.StringVar(&cfg.GeoAPIURL, "geo-api-url", "", "Geolocation API base URL")
	fs.StringVar(&cfg.Env, "env", "", "Environment name (development or production)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3000 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, errors.New("redis URL required (use -r or REDIS_URL env)")
	}

	// Secrets - session secret MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}

	if cfg.RecaptchaSecret == "" {
		cfg.RecaptchaSecret = os.Getenv("RECAPTCHA_SECRET_TOKEN")
	}

	if cfg.AnalyticsURL == "" {
		cfg.AnalyticsURL = os.Getenv("ANALYTICS_URL")
	}
	if cfg.AnalyticsToken == "" {
		cfg.AnalyticsToken = os.Getenv("ANALYTICS_TOKEN")
	}

	if cfg.GeoAPIURL == "" {
		cfg.GeoAPIURL = os.Getenv("GEO_API_URL")
	}
	if cfg.GeoAPIURL == "" {
		cfg.GeoAPIURL = "http://ip-api.com/json"
	}

	if cfg.Env == "" {
		cfg.Env = os.Getenv("ENV")
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}

	return cfg, nil
}
