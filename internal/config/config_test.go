package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("CHECKOUT_ALLOWED_COUNTRIES", "us, ca ,gb")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, []string{"US", "CA", "GB"}, cfg.AllowedCountries)
	assert.Equal(t, 8, cfg.FulfillmentMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.FulfillmentRetryBase)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	t.Setenv("KAFKA_BROKERS", "")
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "STRIPE_SECRET_KEY=sk_file\nSTRIPE_WEBHOOK_SECRET=whsec_file\nKAFKA_BROKERS=k1:9092,k2:9092\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "sk_file", cfg.StripeSecretKey)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	_, err := Load(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY is required")
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET is required")
}
