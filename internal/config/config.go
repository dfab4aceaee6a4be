package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	JWTSecret      string `mapstructure:"JWT_SECRET"`
	TokenTTLMinute int    `mapstructure:"TOKEN_TTL_MINUTES"`

	WHOClientID     string `mapstructure:"WHO_ICD_CLIENT_ID"`
	WHOClientSecret string `mapstructure:"WHO_ICD_CLIENT_SECRET"`
	WHOTokenURL     string `mapstructure:"WHO_ICD_TOKEN_URL"`
	WHOAPIBaseURL   string `mapstructure:"WHO_ICD_API_BASE_URL"`
	WHORelease      string `mapstructure:"WHO_ICD_RELEASE"`

	RedisURL string `mapstructure:"REDIS_URL"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("TOKEN_TTL_MINUTES", 30)
	v.SetDefault("WHO_ICD_TOKEN_URL", "https://icdaccessmanagement.who.int/connect/token")
	v.SetDefault("WHO_ICD_API_BASE_URL", "https://id.who.int/icd")
	v.SetDefault("WHO_ICD_RELEASE", "2024-01")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_MINUTES")
	v.BindEnv("WHO_ICD_CLIENT_ID")
	v.BindEnv("WHO_ICD_CLIENT_SECRET")
	v.BindEnv("WHO_ICD_TOKEN_URL")
	v.BindEnv("WHO_ICD_API_BASE_URL")
	v.BindEnv("WHO_ICD_RELEASE")
	v.BindEnv("REDIS_URL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Demo credentials are active. Do NOT use in production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// WHOConfigured reports whether upstream ICD-API credentials are present.
// Without them the server falls back to the bundled demo datasets.
func (c *Config) WHOConfigured() bool {
	return c.WHOClientID != "" && c.WHOClientSecret != ""
}

// Validate checks that the configuration is safe to run. Production requires
// an explicit JWT signing secret; development generates demo tokens with a
// built-in one.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV is not development")
	}
	if c.TokenTTLMinute <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive, got %d", c.TokenTTLMinute)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	return nil
}
