package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Driver selects the document store backing the services.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"BillBook"`
		Port     int    `envconfig:"PORT" default:"8080"`
		Currency string `envconfig:"DEFAULT_CURRENCY" default:"INR"`
		// OperatorID is the seller identity used by the TUI, which talks to the services directly.
		OperatorID string `envconfig:"OPERATOR_ID" default:"counter-1"`
	}

	DB struct {
		Driver   Driver `envconfig:"DB_DRIVER" default:"postgres"`
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"billbook"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Checkout struct {
		MaxAttempts int           `envconfig:"CHECKOUT_MAX_ATTEMPTS" default:"5"`
		TxTimeout   time.Duration `envconfig:"CHECKOUT_TX_TIMEOUT" default:"10s"`
	}

	Agent struct {
		URL         string        `envconfig:"AGENT_URL"`
		Timeout     time.Duration `envconfig:"AGENT_TIMEOUT" default:"15s"`
		QueueSize   int           `envconfig:"AGENT_QUEUE_SIZE" default:"64"`
		MaxAttempts int           `envconfig:"AGENT_MAX_ATTEMPTS" default:"3"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}

	switch cfg.DB.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}

	if cfg.Checkout.MaxAttempts < 1 {
		return nil, fmt.Errorf("CHECKOUT_MAX_ATTEMPTS must be at least 1, got %d", cfg.Checkout.MaxAttempts)
	}

	return &cfg, nil
}
