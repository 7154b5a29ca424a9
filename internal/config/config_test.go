package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "JPY", cfg.Currency)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "postgres", cfg.Storage)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=app sslmode=disable", cfg.DSN())
}

func TestLoadServer_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadServer()
	assert.Error(t, err)
}

func TestLoadServer_DatabaseURLWins(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/cart")
	t.Setenv("PORT", ":9000")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/cart", cfg.DSN())
	assert.Equal(t, ":9000", cfg.Addr())
}

func TestLoadServer_Currency(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	t.Setenv("CART_CURRENCY", "usd")
	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "USD", cfg.Currency)

	t.Setenv("CART_CURRENCY", "XYZ1")
	_, err = LoadServer()
	assert.Error(t, err)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("CART_API_URL", "http://api.test/")
	t.Setenv("CART_DEBOUNCE_WINDOW", "250ms")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://api.test", cfg.APIURL)
	assert.Equal(t, 250*time.Millisecond, cfg.DebounceWindow)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoadClient_RejectsBadTimeout(t *testing.T) {
	t.Setenv("CART_REQUEST_TIMEOUT", "0s")

	_, err := LoadClient()
	assert.Error(t, err)
}

func TestLoadServer_Storage(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	t.Setenv("STORAGE", "memory")
	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage)

	t.Setenv("STORAGE", "redis")
	_, err = LoadServer()
	assert.Error(t, err)
}
