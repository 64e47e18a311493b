package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "console", cfg.Email.Provider)
	assert.Equal(t, "webmaster@localhost", cfg.Email.DefaultFrom)
	assert.Equal(t, "default", cfg.Queue.Name)
	assert.Equal(t, uint(3), cfg.Queue.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Queue.Backoff)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Empty(t, cfg.Templates.Root)
	assert.False(t, cfg.Security.TrustProxyHeaders)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ACCOUNTS_EMAIL_DEFAULT_FROM", "hello@example.com")
	t.Setenv("ACCOUNTS_QUEUE_WORKERS", "8")
	t.Setenv("ACCOUNTS_TEMPLATES_ROOT", "/srv/templates")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "hello@example.com", cfg.Email.DefaultFrom)
	assert.Equal(t, 8, cfg.Queue.Workers)
	assert.Equal(t, "/srv/templates", cfg.Templates.Root)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Email: EmailConfig{Provider: "smtp", DefaultFrom: "noreply@example.com"},
			Queue: QueueConfig{Name: "default", Workers: 1, MaxAttempts: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing sender", mutate: func(c *Config) { c.Email.DefaultFrom = "" }, wantErr: "default_from"},
		{name: "unknown provider", mutate: func(c *Config) { c.Email.Provider = "pigeon" }, wantErr: "pigeon"},
		{name: "no workers", mutate: func(c *Config) { c.Queue.Workers = 0 }, wantErr: "workers"},
		{name: "no attempts", mutate: func(c *Config) { c.Queue.MaxAttempts = 0 }, wantErr: "max_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
