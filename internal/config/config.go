package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"Ajo"`
		Port     int    `envconfig:"PORT" default:"8080"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ajo"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
	}

	Auth struct {
		Secret string        `envconfig:"JWT_SECRET"`
		TTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`
	}

	Invite struct {
		Length   int `envconfig:"INVITE_CODE_LENGTH" default:"6"`
		Attempts int `envconfig:"INVITE_CODE_ATTEMPTS" default:"5"`
	}

	AMQP struct {
		URL      string `envconfig:"AMQP_URL"`
		Exchange string `envconfig:"AMQP_EXCHANGE" default:"ajo.events"`
	}

	TUI struct {
		UserID string `envconfig:"AJO_USER_ID"`
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

	return &cfg, nil
}

// Validate reports every problem at once. requireAuth is set by processes
// that verify bearer tokens.
func (c *Config) Validate(requireAuth bool) error {
	var problems []string

	if c.App.Port < 1 || c.App.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid PORT %d: must be between 1 and 65535", c.App.Port))
	}

	if c.DB.Port < 1 || c.DB.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid DB_PORT %d: must be between 1 and 65535", c.DB.Port))
	}

	if c.Invite.Length < 4 {
		problems = append(problems, fmt.Sprintf("INVITE_CODE_LENGTH %d is too short: minimum is 4", c.Invite.Length))
	}

	if c.Invite.Attempts < 1 {
		problems = append(problems, fmt.Sprintf("INVITE_CODE_ATTEMPTS %d: must be at least 1", c.Invite.Attempts))
	}

	if requireAuth && c.Auth.Secret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}

	if c.AMQP.URL != "" {
		if u, err := url.Parse(c.AMQP.URL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP_URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP_URL scheme %q: must be amqp or amqps", u.Scheme))
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}

	return nil
}

// TUIUser parses AJO_USER_ID.
func (c *Config) TUIUser() (uuid.UUID, error) {
	if c.TUI.UserID == "" {
		return uuid.Nil, errors.New("AJO_USER_ID is required")
	}

	id, err := uuid.Parse(c.TUI.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid AJO_USER_ID: %w", err)
	}

	return id, nil
}
