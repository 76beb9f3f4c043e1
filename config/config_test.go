package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REALTIME_SOURCE", "")
	t.Setenv("JWT_EXPIRATION", "")

	cfg := Load()
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, RealtimeListen, cfg.RealtimeSource)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.True(t, cfg.NeedsDatabase())
	assert.False(t, cfg.UsesSupabase())
}

func TestLoadSQLiteDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", DriverSQLite)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REALTIME_SOURCE", "")
	t.Setenv("JWT_EXPIRATION", "not-a-duration")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENVIRONMENT", "")

	cfg := Load()
	assert.Equal(t, "hrportal.db", cfg.DatabaseURL)
	assert.Equal(t, RealtimeLocal, cfg.RealtimeSource)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.NoError(t, cfg.Validate())
}

func valid() *Config {
	return &Config{
		DatabaseDriver: DriverSQLite,
		StoreBackend:   BackendGorm,
		AuthBackend:    BackendLocal,
		BlobBackend:    BackendDisk,
		RealtimeSource: RealtimeLocal,
		JWTSecret:      "secret",
		JWTExpiration:  time.Hour,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"driver":         func(c *Config) { c.DatabaseDriver = "mysql" },
		"store":          func(c *Config) { c.StoreBackend = "memory" },
		"listen on lite": func(c *Config) { c.RealtimeSource = RealtimeListen },
		"supabase creds": func(c *Config) { c.BlobBackend = BackendSupabase },
		"jwt secret":     func(c *Config) { c.JWTSecret = "" },
		"expiration":     func(c *Config) { c.JWTExpiration = 0 },
		"default secret in production": func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = defaultJWTSecret
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	c := valid()
	c.Environment = "production"
	assert.NoError(t, c.Validate())

	c = valid()
	c.StoreBackend = BackendSupabase
	c.AuthBackend = BackendSupabase
	c.SupabaseURL = "https://x.supabase.co"
	c.SupabaseKey = "key"
	assert.NoError(t, c.Validate())
	assert.False(t, c.NeedsDatabase())
}
