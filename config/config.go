// Package config loads client credentials and transport settings from the
// environment, with optional .env support for local development.
package config

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	odoorpc "github.com/jgtolentino/clean-dashboard"
)

// Environment variable names.
const (
	EnvURL      = "ODOO_URL"
	EnvDatabase = "ODOO_DB"
	EnvLogin    = "ODOO_LOGIN"
	EnvPassword = "ODOO_PASSWORD"
	EnvTimeout  = "ODOO_TIMEOUT"
)

// DefaultTimeout bounds every HTTP exchange unless overridden.
const DefaultTimeout = 30 * time.Second

// Config carries everything needed to construct a client.
type Config struct {
	URL      string
	Database string
	Login    string
	Password string
	Timeout  time.Duration
}

// Load reads the environment, after loading a .env file when one exists.
// A missing .env is not an error; missing credentials are.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		URL:      os.Getenv(EnvURL),
		Database: os.Getenv(EnvDatabase),
		Login:    os.Getenv(EnvLogin),
		Password: os.Getenv(EnvPassword),
		Timeout:  DefaultTimeout,
	}

	if raw := os.Getenv(EnvTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", EnvTimeout)
		}
		cfg.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on anything that would later produce malformed
// requests.
func (c *Config) Validate() error {
	switch {
	case c.URL == "":
		return errors.Errorf("%s is required", EnvURL)
	case c.Database == "":
		return errors.Errorf("%s is required", EnvDatabase)
	case c.Login == "":
		return errors.Errorf("%s is required", EnvLogin)
	case c.Password == "":
		return errors.Errorf("%s is required", EnvPassword)
	case c.Timeout <= 0:
		return errors.Errorf("%s must be positive", EnvTimeout)
	}
	return nil
}

// Credentials adapts the config for the client constructor.
func (c *Config) Credentials() odoorpc.Credentials {
	return odoorpc.Credentials{
		URL:      c.URL,
		Database: c.Database,
		Login:    c.Login,
		Password: c.Password,
	}
}

// HTTPClient returns a client enforcing the configured timeout.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.Timeout}
}
