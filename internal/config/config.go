package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	DatabaseURL       string `env:"DATABASE_URL,required"`
	RedisURL          string `env:"REDIS_URL,required"`
	GeneratorBaseURL  string `env:"GENERATOR_BASE_URL,required"`
	GeneratorAPIKey   string `env:"GENERATOR_API_KEY"`
	AppBaseURL        string `env:"APP_BASE_URL" envDefault:"https://app.candor.example"`
	InviteTTLHours    int    `env:"INVITE_TTL_HOURS" envDefault:"24"`
	TrialSessionQuota int    `env:"TRIAL_SESSION_QUOTA" envDefault:"3"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) InviteTTL() time.Duration {
	return time.Duration(c.InviteTTLHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// InvitationLink composes the URL the initiator shares with the second party.
func (c *Config) InvitationLink(token string) string {
	return fmt.Sprintf("%s/join/%s", strings.TrimSuffix(c.AppBaseURL, "/"), token)
}

func (c *Config) Validate(isProduction bool) error {
	if c.InviteTTLHours <= 0 {
		return fmt.Errorf("INVITE_TTL_HOURS must be positive")
	}
	if !strings.HasPrefix(c.GeneratorBaseURL, "http://") && !strings.HasPrefix(c.GeneratorBaseURL, "https://") {
		return fmt.Errorf("GENERATOR_BASE_URL must be an http(s) URL")
	}

	if isProduction {
		if c.GeneratorAPIKey == "" {
			log.Warn().Msg("GENERATOR_API_KEY is empty in production: content generator calls are unauthenticated")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
