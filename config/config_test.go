package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setAll(t *testing.T) {
	t.Setenv(EnvURL, "http://localhost:8069")
	t.Setenv(EnvDatabase, "retail")
	t.Setenv(EnvLogin, "admin")
	t.Setenv(EnvPassword, "secret")
	t.Setenv(EnvTimeout, "")
}

func TestLoad(t *testing.T) {
	setAll(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8069", cfg.URL)
	assert.Equal(t, "retail", cfg.Database)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	creds := cfg.Credentials()
	assert.Equal(t, "retail", creds.Database)
	assert.Equal(t, "admin", creds.Login)

	assert.Equal(t, DefaultTimeout, cfg.HTTPClient().Timeout)
}

func TestLoadTimeoutOverride(t *testing.T) {
	setAll(t)
	t.Setenv(EnvTimeout, "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	t.Setenv(EnvTimeout, "not-a-duration")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadMissingCredentials(t *testing.T) {
	for _, missing := range []string{EnvURL, EnvDatabase, EnvLogin, EnvPassword} {
		setAll(t)
		t.Setenv(missing, "")
		_, err := Load()
		assert.Error(t, err, "missing %s must fail fast", missing)
	}
}

func TestValidateTimeout(t *testing.T) {
	cfg := &Config{URL: "http://x", Database: "d", Login: "l", Password: "p", Timeout: -time.Second}
	assert.Error(t, cfg.Validate())
	cfg.Timeout = time.Second
	assert.NoError(t, cfg.Validate())
}
