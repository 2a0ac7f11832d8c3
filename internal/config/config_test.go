package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "dev", cfg.RunEnvironment)
				assert.False(t, cfg.IsProduction())
				assert.Equal(t, "postgres", cfg.DBDriver)
				assert.Equal(t, 25, cfg.DBMaxOpenConnections)
				assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "memory", cfg.CacheDriver)
				assert.Equal(t, int64(100000), cfg.MemoryCacheMaxItems)
				assert.Equal(t, 120*time.Second, cfg.APIKeyCacheTTL)
				assert.Equal(t, 600*time.Second, cfg.RoleCacheTTL)
				assert.Equal(t, 6*time.Hour, cfg.JWKSCacheTTL)
				assert.Equal(t, 5*time.Second, cfg.JWKSFetchTimeout)
				assert.Equal(t, map[string][]string{"AutonomousWriters": {"manage:events"}}, cfg.AzureRoleMapping)
				assert.Equal(t, 5, cfg.RateLimitBurst)
				assert.InDelta(t, 5.0/30.0, cfg.RateLimitRequestsPerSec, 1e-9)
				assert.Equal(t, 10, cfg.RateLimitSessionBurst)
				assert.Equal(t, "authcore", cfg.MetricsNamespace)
			},
		},
		{
			name: "load custom server configuration",
			envVars: map[string]string{
				"SERVER_HOST":     "localhost",
				"SERVER_PORT":     "9090",
				"RUN_ENVIRONMENT": "prod",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.ServerHost)
				assert.Equal(t, 9090, cfg.ServerPort)
				assert.True(t, cfg.IsProduction())
			},
		},
		{
			name: "load custom database configuration",
			envVars: map[string]string{
				"DB_DRIVER":               "mysql",
				"DB_CONNECTION_STRING":    "user:password@tcp(localhost:3306)/testdb?parseTime=true",
				"DB_MAX_OPEN_CONNECTIONS": "50",
				"DB_MAX_IDLE_CONNECTIONS": "10",
				"DB_CONN_MAX_LIFETIME":    "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mysql", cfg.DBDriver)
				assert.Equal(t, "user:password@tcp(localhost:3306)/testdb?parseTime=true", cfg.DBConnectionString)
				assert.Equal(t, 50, cfg.DBMaxOpenConnections)
				assert.Equal(t, 10, cfg.DBMaxIdleConnections)
				assert.Equal(t, 10*time.Minute, cfg.DBConnMaxLifetime)
			},
		},
		{
			name: "load custom cache configuration",
			envVars: map[string]string{
				"CACHE_DRIVER":          "redis",
				"REDIS_URL":             "redis://cache:6379/1",
				"API_KEY_CACHE_SECONDS": "30",
				"ROLE_CACHE_SECONDS":    "60",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "redis", cfg.CacheDriver)
				assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
				assert.Equal(t, 30*time.Second, cfg.APIKeyCacheTTL)
				assert.Equal(t, time.Minute, cfg.RoleCacheTTL)
			},
		},
		{
			name: "load role mapping with single string value",
			envVars: map[string]string{
				"AZURE_ROLE_MAPPING": `{"AutonomousWriters":"manage:events","Scanners":["scan:tickets","manage:tickets"]}`,
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"manage:events"}, cfg.AzureRoleMapping["AutonomousWriters"])
				assert.Equal(t, []string{"scan:tickets", "manage:tickets"}, cfg.AzureRoleMapping["Scanners"])
			},
		},
		{
			name: "load custom log level",
			envVars: map[string]string{
				"LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "debug", cfg.GetGinMode())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for key, value := range tt.envVars {
				err := os.Setenv(key, value)
				require.NoError(t, err)
			}

			cfg, err := Load()
			require.NoError(t, err)

			tt.validate(t, cfg)
		})
	}
}

func TestLoad_InvalidRoleMapping(t *testing.T) {
	os.Clearenv()
	require.NoError(t, os.Setenv("AZURE_ROLE_MAPPING", "not json"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid AZURE_ROLE_MAPPING")
}

func TestGetGinMode(t *testing.T) {
	for _, level := range []string{"info", "warn", "error", "bogus"} {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, "release", cfg.GetGinMode(), level)
	}
}
