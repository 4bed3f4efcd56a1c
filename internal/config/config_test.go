package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE", "")
	t.Setenv("CHECKOUT_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, CheckoutLocal, cfg.Checkout.Mode)
	assert.Equal(t, 6, cfg.Session.MinPasswordLength)
	assert.True(t, cfg.Session.ValidateOnStartup)
	assert.Equal(t, "storefront:", cfg.Storage.Redis.Prefix)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE", "redis")
	t.Setenv("STOREFRONT_API_TIMEOUT", "3s")
	t.Setenv("SESSION_VALIDATE_ON_STARTUP", "false")
	t.Setenv("CHECKOUT_MODE", "remote")
	t.Setenv("REDIS_DB", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.Session.ValidateOnStartup)
	assert.Equal(t, CheckoutRemote, cfg.Checkout.Mode)
	assert.Equal(t, 4, cfg.Storage.Redis.DB)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE", "floppy")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE", "")
	t.Setenv("CHECKOUT_MODE", "")
	t.Setenv("CHECKOUT_SIMULATED_LATENCY", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Checkout.SimulatedLatency)
}
