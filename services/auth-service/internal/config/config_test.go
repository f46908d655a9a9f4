package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://localhost/berberpazar")
}

func TestNewAuthServiceConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := NewAuthServiceConfig()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "http://localhost:3000", cfg.AppURL)
	assert.Equal(t, "token", cfg.Token.CookieName)
	assert.Equal(t, "berberpazar", cfg.Token.Issuer)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 465, cfg.Mailer.Port)
	assert.Equal(t, 5, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "https://graph.facebook.com/v19.0", cfg.WhatsApp.BaseURL)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.Mailer.Enabled())
	assert.False(t, cfg.RateLimit.Enabled())
}

func TestNewAuthServiceConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/berberpazar")

	_, err := NewAuthServiceConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestNewAuthServiceConfig_Channels(t *testing.T) {
	setRequired(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("APP_URL", "https://berberpazar.com/")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "noreply@example.com")
	t.Setenv("SMTP_PASS", "pw")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_FROM", "+15550001111")
	t.Setenv("WHATSAPP_CLOUD_TOKEN", "wa")
	t.Setenv("WHATSAPP_CLOUD_PHONE_ID", "123")

	cfg, err := NewAuthServiceConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://berberpazar.com", cfg.AppURL)
	assert.True(t, cfg.Mailer.Enabled())
	assert.True(t, cfg.Twilio.Enabled())
	assert.True(t, cfg.WhatsApp.Enabled())
}

func TestNewAuthServiceConfig_TrustedProxies(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.1")

	cfg, err := NewAuthServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxies)
}

func TestNewAuthServiceConfig_Validation(t *testing.T) {
	t.Run("mongo requires uri", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DB_DRIVER", "mongo")

		_, err := NewAuthServiceConfig()
		assert.ErrorContains(t, err, "MONGO_URI")
	})

	t.Run("bad trusted proxy", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,not-an-ip")

		_, err := NewAuthServiceConfig()
		assert.ErrorContains(t, err, "TRUSTED_PROXIES")
	})

	t.Run("unknown driver", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DB_DRIVER", "sqlite")

		_, err := NewAuthServiceConfig()
		assert.ErrorContains(t, err, "unsupported DB_DRIVER")
	})

	t.Run("bad log level", func(t *testing.T) {
		setRequired(t)
		t.Setenv("LOG_LEVEL", "loud")

		_, err := NewAuthServiceConfig()
		assert.ErrorContains(t, err, "LOG_LEVEL")
	})
}
