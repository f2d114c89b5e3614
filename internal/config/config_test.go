package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_ACCESS_SECRET", "access-secret-for-tests")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret-for-tests")
}

func TestLoadFromEnvAppliesDefaults(t *testing.T) {
	validEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "skill-journal", cfg.App.AppName)
	assert.Equal(t, "8080", cfg.App.HTTPPort)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 720*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, []string{"createdAt"}, cfg.Store.OrderableFields)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFromYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  http_port: "9090"
jwt:
  access_secret: "yaml-access-secret-value"
  refresh_secret: "yaml-refresh-secret-value"
store:
  driver: memory
redis:
  host: cache
`), 0o644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("HTTP_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.App.HTTPPort)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			JWT:   JWTConfig{AccessSecret: "aaaaaaaaaaaaaaaa", RefreshSecret: "bbbbbbbbbbbbbbbb", AccessTTL: time.Minute, RefreshTTL: time.Hour},
			Store: StoreConfig{Driver: "postgres"},
			WS:    WSConfig{SendBuffer: 4},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"short access secret", func(c *Config) { c.JWT.AccessSecret = "short" }, false},
		{"same secrets", func(c *Config) { c.JWT.RefreshSecret = c.JWT.AccessSecret }, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, false},
		{"zero ttl", func(c *Config) { c.JWT.AccessTTL = 0 }, false},
		{"no send buffer", func(c *Config) { c.WS.SendBuffer = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errInvalidConfig)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{DBHost: " db ", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
