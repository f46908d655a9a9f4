package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/token"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/usecase"
	authtypes "github.com/vasapolrittideah/berberpazar/services/auth-service/pkg/types"
	"github.com/vasapolrittideah/berberpazar/shared/middleware"
)

const (
	msgInvalidCredentials = "invalid identifier or password"
	msgUnauthorized       = "unauthorized"
)

func (h *authHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Identifier: req.LoginIdentifier(),
		Password:   req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		default:
			h.logger.Error().Err(err).Msg("failed to login")
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	// A successful sign-in clears earlier failures from the same client.
	h.resetRateLimit(r, "login")

	h.cookies.set(w, result.Token)
	writeJSON(w, http.StatusOK, payload.UserResponse{OK: true, User: result.SessionUser()})
}

func (h *authHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		City:     req.City,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			writeError(w, http.StatusConflict, "email is already registered")
		case errors.Is(err, usecase.ErrPhoneAlreadyExists):
			writeError(w, http.StatusConflict, "phone is already registered")
		case errors.Is(err, usecase.ErrInvalidPhone),
			errors.Is(err, usecase.ErrInvalidCity),
			errors.Is(err, usecase.ErrNameTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Msg("failed to register user")
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	h.cookies.set(w, result.Token)
	writeJSON(w, http.StatusOK, payload.UserResponse{OK: true, User: result.SessionUser()})
}

func (h *authHTTPHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req payload.GoogleLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.authUsecase.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrGoogleDisabled):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, usecase.ErrInvalidGoogleToken):
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			h.logger.Error().Err(err).Msg("failed to sign in with google")
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	h.cookies.set(w, result.Token)
	writeJSON(w, http.StatusOK, payload.UserResponse{OK: true, User: result.SessionUser()})
}

// Logout clears the session cookie. Browser form posts are redirected home.
func (h *authHTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.clear(w)

	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	writeOK(w)
}

// Me reports the signed-in user, or a null user for anonymous requests.
func (h *authHTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext[*authtypes.SessionClaims](r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, payload.MeResponse{})
		return
	}

	user, err := h.authUsecase.CurrentUser(r.Context(), claims)
	if err != nil {
		if !errors.Is(err, usecase.ErrUserNotFound) {
			h.logger.Error().Err(err).Msg("failed to load current user")
		}
		writeJSON(w, http.StatusOK, payload.MeResponse{})
		return
	}

	writeJSON(w, http.StatusOK, payload.MeResponse{User: usecase.ToSessionUser(user)})
}

func (h *authHTTPHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req payload.ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.authUsecase.ChangePassword(r.Context(), userID, usecase.ChangePasswordParams{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrIncorrectPassword):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, usecase.ErrSamePassword):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
		default:
			h.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to change password")
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	writeOK(w)
}

// currentUserID resolves the session user id or answers 401.
func (h *authHTTPHandler) currentUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	claims, ok := middleware.ClaimsFromContext[*authtypes.SessionClaims](r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return 0, false
	}

	userID, err := token.UserID(claims)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return 0, false
	}

	return userID, true
}
