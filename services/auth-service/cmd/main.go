package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/config"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/notifier"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/token"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/berberpazar/shared/auth"
	"github.com/vasapolrittideah/berberpazar/shared/mailer"
	"github.com/vasapolrittideah/berberpazar/shared/provider"
	"github.com/vasapolrittideah/berberpazar/shared/ratelimit"
	"github.com/vasapolrittideah/berberpazar/shared/utilities"
)

const (
	outboundTimeout = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "auth-service").Logger()

	cfg := config.MustLoad(&logger)
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger = logger.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo, closeStore := openUserRepository(ctx, cfg, &logger)
	defer closeStore()

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer)

	sessionTokens, err := token.NewSessionTokens(jwtAuth, cfg.Token.Secret)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session token issuer")
	}

	resetTokens, err := token.NewResetTokens(jwtAuth, cfg.Token.Secret)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create password reset token issuer")
	}

	httpClient := &http.Client{Timeout: outboundTimeout}
	dispatcher := notifier.NewDispatcher(
		&logger,
		notifier.NewWhatsAppChannel(cfg.WhatsApp, httpClient),
		notifier.NewTwilioChannel(cfg.Twilio, httpClient),
		notifier.NewEmailChannel(mailer.NewMailer(&logger, cfg.Mailer)),
	)

	authUsecase := usecase.NewAuthUsecase(
		userRepo,
		sessionTokens,
		provider.NewGoogleOAuthProvider(cfg.Google.ClientID),
		&logger,
	)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(userRepo, resetTokens, dispatcher, cfg.AppURL, &logger)

	clientIP, err := utilities.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse trusted proxies")
	}

	deps := handler.Dependencies{
		AuthUsecase:          authUsecase,
		PasswordResetUsecase: passwordResetUsecase,
		SessionTokens:        sessionTokens,
		Pinger:               userRepo,
		ClientIP:             clientIP,
		CookieName:           cfg.Token.CookieName,
		SecureCookies:        cfg.IsProduction(),
		Logger:               &logger,
	}

	if cfg.RateLimit.Enabled() {
		redisClient := ratelimit.NewClient(cfg.RateLimit)
		defer redisClient.Close()

		deps.Limiter = ratelimit.New(redisClient, cfg.RateLimit)
	} else {
		logger.Warn().Msg("REDIS_ADDR is not set, rate limiting is disabled")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("auth service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down auth service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down http server")
	}
}

// openUserRepository connects the configured credential store. The returned func
// releases it.
func openUserRepository(
	ctx context.Context,
	cfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) (repository.UserRepository, func()) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.Database.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to mongodb")
		}

		repo := repository.NewUserMongoRepository(ctx, logger, client.Database(cfg.Database.MongoDatabase))

		return repo, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error().Err(err).Msg("failed to disconnect from mongodb")
			}
		}
	default:
		db, err := repository.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to postgres")
		}

		if err := repository.RunMigrations(ctx, db); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}

		return repository.NewUserPostgresRepository(db), func() {
			if err := db.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close postgres")
			}
		}
	}
}
