package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/token"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/berberpazar/shared/middleware"
	"github.com/vasapolrittideah/berberpazar/shared/ratelimit"
	"github.com/vasapolrittideah/berberpazar/shared/utilities"
)

// Pinger checks connectivity of the credential store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimiter counts attempts per scope and key.
type RateLimiter interface {
	Allow(ctx context.Context, scope, key string) error
	Reset(ctx context.Context, scope, key string) error
}

// Dependencies wires the HTTP layer. Limiter is optional, and a nil ClientIP keys rate
// limits on the connection address.
type Dependencies struct {
	AuthUsecase          usecase.AuthUsecase
	PasswordResetUsecase usecase.PasswordResetUsecase
	SessionTokens        *token.SessionTokens
	Pinger               Pinger
	Limiter              RateLimiter
	ClientIP             *utilities.ClientIPResolver
	CookieName           string
	SecureCookies        bool
	Logger               *zerolog.Logger
}

type authHTTPHandler struct {
	authUsecase          usecase.AuthUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	pinger               Pinger
	limiter              RateLimiter
	clientIP             *utilities.ClientIPResolver
	cookies              sessionCookies
	validate             *validator.Validate
	trans                ut.Translator
	logger               *zerolog.Logger
}

// NewRouter builds the chi router serving the auth and profile API.
func NewRouter(deps Dependencies) http.Handler {
	validate, trans := newValidator()

	h := &authHTTPHandler{
		authUsecase:          deps.AuthUsecase,
		passwordResetUsecase: deps.PasswordResetUsecase,
		pinger:               deps.Pinger,
		limiter:              deps.Limiter,
		clientIP:             deps.ClientIP,
		cookies:              sessionCookies{name: deps.CookieName, secure: deps.SecureCookies},
		validate:             validate,
		trans:                trans,
		logger:               deps.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(deps.Logger, deps.ClientIP))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Session(deps.CookieName, deps.SessionTokens.Verify))

	r.Get("/api/health", h.Health)

	r.Route("/api/auth", func(r chi.Router) {
		r.With(h.rateLimit("login")).Post("/login", h.Login)
		r.With(h.rateLimit("register")).Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
		r.With(h.rateLimit("forgot")).Post("/forgot", h.RequestPasswordReset)
		r.Post("/reset", h.ResetPassword)
		r.Get("/reset/validate", h.ValidatePasswordResetToken)
		r.Post("/change-password", h.ChangePassword)
		r.With(h.rateLimit("google")).Post("/google", h.GoogleLogin)
	})

	r.Get("/api/profile", h.GetProfile)
	r.Put("/api/profile", h.UpdateProfile)

	return r
}

// rateLimit rejects a client IP that used up its attempts for scope. Limiter outages
// are logged and let the request through.
func (h *authHTTPHandler) rateLimit(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if h.limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := h.limiter.Allow(r.Context(), scope, h.clientIP.ClientIP(r))
			switch {
			case err == nil:
			case errors.Is(err, ratelimit.ErrRateLimited):
				writeError(w, http.StatusTooManyRequests, "too many attempts, please try again later")
				return
			default:
				h.logger.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// resetRateLimit forgets the attempts a client made in scope.
func (h *authHTTPHandler) resetRateLimit(r *http.Request, scope string) {
	if h.limiter == nil {
		return
	}

	if err := h.limiter.Reset(r.Context(), scope, h.clientIP.ClientIP(r)); err != nil {
		h.logger.Warn().Err(err).Str("scope", scope).Msg("failed to reset rate limit")
	}
}

func (h *authHTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusInternalServerError, healthResponse("fail"))
		return
	}

	writeJSON(w, http.StatusOK, healthResponse("ok"))
}
