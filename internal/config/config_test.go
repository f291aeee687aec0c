package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("PHONEPE_MERCHANT_ID", "MERCHANTUAT")
	t.Setenv("PHONEPE_SALT", "salt-key")
	t.Setenv("PHONEPE_KEY_INDEX", "1")
	t.Setenv("PHONEPE_BASE_URL", "https://api-preprod.phonepe.com/apis/pg-sandbox/")
	t.Setenv("FRONTEND_URL", "http://localhost:3000/")
	t.Setenv("BACKEND_URL", "http://localhost:5000")
}

func TestLoad_ValidConfig(t *testing.T) {
	setRequired(t)
	t.Setenv("PHONEPE_TIMEOUT", "20")
	t.Setenv("PHONEPE_VERIFY_CALLBACK", "true")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://api-preprod.phonepe.com/apis/pg-sandbox", cfg.PhonePe.BaseURL)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, 20*time.Second, cfg.PhonePe.Timeout)
	assert.True(t, cfg.PhonePe.VerifyCallback)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.TTL)
}

func TestValidate_MissingSecretsFailFast(t *testing.T) {
	setRequired(t)
	t.Setenv("PHONEPE_SALT", "")
	t.Setenv("BACKEND_URL", "  ")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PHONEPE_SALT")
	assert.Contains(t, err.Error(), "BACKEND_URL")
	assert.NotContains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_ReportsMissingKeysInOrder(t *testing.T) {
	cfg := &Config{PhonePe: PhonePeConfig{Timeout: time.Second}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, []string{
		"missing required env JWT_SECRET",
		"missing required env PHONEPE_MERCHANT_ID",
		"missing required env PHONEPE_SALT",
		"missing required env PHONEPE_KEY_INDEX",
		"missing required env PHONEPE_BASE_URL",
		"missing required env FRONTEND_URL",
		"missing required env BACKEND_URL",
	}, strings.Split(err.Error(), "\n"))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DUR", "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration("X_DUR", time.Second))

	t.Setenv("X_DUR", "7")
	assert.Equal(t, 7*time.Second, getEnvDuration("X_DUR", time.Second))

	t.Setenv("X_DUR", "nope")
	assert.Equal(t, time.Second, getEnvDuration("X_DUR", time.Second))
}
