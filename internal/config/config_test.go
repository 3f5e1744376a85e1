// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 24*time.Hour, cfg.Inventory.ReservationTTL)
	assert.Equal(t, int64(999), cfg.Inventory.DefaultShipping)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("INVENTORY_RESERVATION_TTL", "2h")
	t.Setenv("ORDER_DEFAULT_SHIPPING_FEE", "1500")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Inventory.ReservationTTL)
	assert.Equal(t, int64(1500), cfg.Inventory.DefaultShipping)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Security.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Database.Host = ""
	require.Error(t, cfg.Validate())

	cfg, err = Load()
	require.NoError(t, err)
	cfg.Inventory.ReservationTTL = 0
	require.Error(t, cfg.Validate())
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host: "db", Port: "5432", User: "u", Password: "p", Name: "warehouse", SSLMode: "disable",
		},
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=warehouse sslmode=disable", cfg.GetDatabaseDSN())
}

func TestGetRedisAddr(t *testing.T) {
	cfg := &Config{Redis: RedisConfig{Host: "cache", Port: "6379"}}
	assert.Equal(t, "cache:6379", cfg.GetRedisAddr())
}
