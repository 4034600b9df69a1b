// Package config loads and validates environment variables at startup.
// Fail-fast: if a variable cannot be parsed, the process exits.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"INTAKE_ADDR" envDefault:":8080"`

	// DatabasePath is the SQLite file backing the submission audit store.
	DatabasePath string `env:"INTAKE_DB_PATH" envDefault:"intake.db"`

	// RedisURL switches the rate limiters to a Redis-backed store when set.
	// Empty means the in-process store.
	RedisURL string `env:"INTAKE_REDIS_URL"`

	// GelfAddr enables GELF UDP log shipping when set, e.g. "172.17.0.1:12201".
	GelfAddr string `env:"INTAKE_GELF_ADDR"`

	JWTSecret string `env:"INTAKE_JWT_SECRET" envDefault:"intake-dev-secret-change-me"`

	// JWTTTL is how long an operator login token stays valid.
	JWTTTL     time.Duration `env:"INTAKE_JWT_TTL" envDefault:"24h"`
	AdminEmail string        `env:"INTAKE_ADMIN_EMAIL" envDefault:"admin@intake.local"`
	AdminPass  string        `env:"INTAKE_ADMIN_PASS" envDefault:"admin123"`

	// Mail provider. An empty API key leaves dispatch unconfigured and
	// submissions fail with 500 until it is set.
	MailAPIKey   string `env:"INTAKE_MAIL_API_KEY"`
	MailEndpoint string `env:"INTAKE_MAIL_ENDPOINT" envDefault:"https://api.resend.com/emails"`
	MailFrom     string `env:"INTAKE_MAIL_FROM" envDefault:"noreply@lumenworks.io"`
	ContactTo    string `env:"INTAKE_CONTACT_TO" envDefault:"hello@lumenworks.io"`
	RecruitTo    string `env:"INTAKE_RECRUIT_TO" envDefault:"careers@lumenworks.io"`

	Contact FlowLimits `envPrefix:"INTAKE_CONTACT_"`
	Recruit FlowLimits `envPrefix:"INTAKE_RECRUIT_"`

	// SweepInterval controls how often the in-memory rate-limit store evicts
	// lapsed entries.
	SweepInterval time.Duration `env:"INTAKE_LIMIT_SWEEP" envDefault:"10m"`

	// FlowSessionTTL bounds how long an idle wizard session is kept.
	FlowSessionTTL time.Duration `env:"INTAKE_FLOW_TTL" envDefault:"1h"`
}

// FlowLimits are the per-flow rate limiter settings. The contact and recruit
// flows are deliberately tuned apart and must stay separate instances.
type FlowLimits struct {
	Window          time.Duration `env:"WINDOW"`
	MaxRequests     int           `env:"MAX"`
	EmailCooldown   time.Duration `env:"EMAIL_COOLDOWN"`
	MessageCooldown time.Duration `env:"MESSAGE_COOLDOWN"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Contact: FlowLimits{
			Window:          15 * time.Minute,
			MaxRequests:     3,
			EmailCooldown:   5 * time.Minute,
			MessageCooldown: 2 * time.Minute,
		},
		Recruit: FlowLimits{
			Window:          5 * time.Minute,
			MaxRequests:     10,
			EmailCooldown:   time.Minute,
			MessageCooldown: 30 * time.Second,
		},
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Contact.MaxRequests < 1 || cfg.Recruit.MaxRequests < 1 {
		return nil, fmt.Errorf("rate limit max must be positive")
	}
	return cfg, nil
}
