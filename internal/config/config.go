package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"CRM Proposals"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"crm"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Auth struct {
		// JWTSecret verifies HS256 bearer tokens issued by the CRM login service.
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
	}

	Approval struct {
		// PolicyFile is a YAML threshold table; empty means the built-in default.
		PolicyFile string `envconfig:"APPROVAL_POLICY_FILE"`
	}

	Currency struct {
		// Decimals is the number of minor-unit digits of amounts, 0 for KRW.
		Decimals int32 `envconfig:"CURRENCY_DECIMALS" default:"0"`
	}

	TUI struct {
		UserID string `envconfig:"TUI_USER_ID"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// ApprovalPolicy returns the configured threshold table.
func (c *Config) ApprovalPolicy() (proposal.Policy, error) {
	if c.Approval.PolicyFile == "" {
		return proposal.DefaultPolicy(), nil
	}

	return proposal.LoadPolicy(c.Approval.PolicyFile)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Currency.Decimals < 0 || cfg.Currency.Decimals > 4 {
		return nil, fmt.Errorf("CURRENCY_DECIMALS must be between 0 and 4, got %d", cfg.Currency.Decimals)
	}

	return &cfg, nil
}
