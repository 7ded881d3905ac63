package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpires)
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, "INR", cfg.Razorpay.Currency)
	assert.Equal(t, "Vurel Store", cfg.SMTP.FromName)
	assert.False(t, cfg.SMTP.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL_HOURS", "2")
	t.Setenv("RAZORPAY_BASE_URL", "http://localhost:9999/v1/")
	t.Setenv("OTP_DEV_ECHO", "true")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "mailer")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.TokenExpires)
	assert.Equal(t, "http://localhost:9999/v1", cfg.Razorpay.BaseURL)
	assert.True(t, cfg.OTPDevEcho)
	assert.True(t, cfg.SMTP.Enabled())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}
