package handler

import (
	"errors"
	"net/http"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/usecase"
)

const (
	msgInvalidResetToken = "reset token is invalid or expired"
	msgNoDeliveryChannel = "no delivery channel is configured for this account; set up WhatsApp, SMS or SMTP"
)

// RequestPasswordReset answers the same body whether or not the identifier belongs to an
// account.
func (h *authHTTPHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	channel, err := h.passwordResetUsecase.RequestPasswordReset(r.Context(), req.Identifier)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNoDeliveryChannel):
			h.logger.Error().Err(err).Msg("password reset could not be delivered")
			writeError(w, http.StatusInternalServerError, msgNoDeliveryChannel)
		default:
			h.logger.Error().Err(err).Msg("failed to request password reset")
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	if channel != "" {
		h.logger.Info().Str("channel", channel).Msg("password reset link sent")
	}

	writeOK(w)
}

func (h *authHTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.passwordResetUsecase.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeResetTokenError(w, err, "failed to reset password")
		return
	}

	writeOK(w)
}

// ValidatePasswordResetToken lets the reset page check a token before asking for a new
// password.
func (h *authHTTPHandler) ValidatePasswordResetToken(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeError(w, http.StatusBadRequest, msgInvalidResetToken)
		return
	}

	if _, err := h.passwordResetUsecase.ValidatePasswordResetToken(r.Context(), tokenStr); err != nil {
		h.writeResetTokenError(w, err, "failed to validate password reset token")
		return
	}

	writeOK(w)
}

func (h *authHTTPHandler) writeResetTokenError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, usecase.ErrTokenExpired),
		errors.Is(err, usecase.ErrInvalidToken),
		errors.Is(err, usecase.ErrTokenNotFound):
		writeError(w, http.StatusBadRequest, msgInvalidResetToken)
	default:
		h.logger.Error().Err(err).Msg(msg)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
