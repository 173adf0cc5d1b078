package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProdConfig() *Config {
	return &Config{
		Env:            "production",
		Port:           "8080",
		JWTSecret:      "secure-secret-at-least-32-chars-long",
		DBDriver:       "postgres",
		DBPassword:     "secure-password",
		DBSSLMode:      "require",
		AllowedOrigins: "https://snapcircle.example",
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid production config", func(c *Config) {}, false},
		{"disable SSL mode", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"empty SSL mode", func(c *Config) { c.DBSSLMode = "" }, true},
		{"default secret", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"short secret outside production", func(c *Config) {
			c.Env = "development"
			c.JWTSecret = "short"
		}, true},
		{"sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }, true},
		{"default db password", func(c *Config) { c.DBPassword = "password" }, true},
		{"wildcard origins", func(c *Config) { c.AllowedOrigins = "*" }, true},
		{"development is relaxed", func(c *Config) {
			c.Env = "development"
			c.DBSSLMode = "disable"
			c.DBDriver = "sqlite"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validProdConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRejectsUnknownDriver(t *testing.T) {
	c := validProdConfig()
	c.Env = "development"
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("PORT", "9999")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, "snapcircle-api", c.JWTIssuer)
	assert.Equal(t, 300, c.CacheTTLSeconds)
}
