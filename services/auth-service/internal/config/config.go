package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/notifier"
	"github.com/vasapolrittideah/berberpazar/shared/mailer"
	"github.com/vasapolrittideah/berberpazar/shared/ratelimit"
	"github.com/vasapolrittideah/berberpazar/shared/utilities"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// AuthServiceConfig holds every setting of the auth service, read from the environment.
type AuthServiceConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR"   envDefault:":3000"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	AppURL      string `env:"APP_URL"     envDefault:"http://localhost:3000"`
	LogLevel    string `env:"LOG_LEVEL"   envDefault:"info"`
	// TrustedProxies lists the CIDRs or addresses whose forwarding headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	Token     TokenConfig
	Database  DatabaseConfig
	Google    GoogleConfig
	Mailer    mailer.Config
	Twilio    notifier.TwilioConfig
	WhatsApp  notifier.WhatsAppConfig
	RateLimit ratelimit.Config
}

type TokenConfig struct {
	Secret     string `env:"JWT_SECRET,required,notEmpty"`
	Issuer     string `env:"TOKEN_ISSUER"     envDefault:"berberpazar"`
	CookieName string `env:"AUTH_COOKIE_NAME" envDefault:"token"`
}

type DatabaseConfig struct {
	Driver        string `env:"DB_DRIVER"      envDefault:"postgres"`
	URL           string `env:"DATABASE_URL"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"berberpazar"`
}

type GoogleConfig struct {
	ClientID string `env:"GOOGLE_CLIENT_ID"`
}

// IsProduction reports whether cookies must be marked Secure.
func (c *AuthServiceConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// NewAuthServiceConfig parses the environment into an AuthServiceConfig.
func NewAuthServiceConfig() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")

	return &cfg, nil
}

// MustLoad is NewAuthServiceConfig for process startup.
func MustLoad(logger *zerolog.Logger) *AuthServiceConfig {
	cfg, err := NewAuthServiceConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load auth service configuration")
	}

	return cfg
}

func (c *AuthServiceConfig) validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("missing DATABASE_URL environment variable")
		}
	case DriverMongo:
		if c.Database.MongoURI == "" {
			return errors.New("missing MONGO_URI environment variable")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if _, err := url.ParseRequestURI(c.AppURL); err != nil {
		return fmt.Errorf("invalid APP_URL: %w", err)
	}

	if _, err := utilities.NewClientIPResolver(c.TrustedProxies); err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return nil
}
