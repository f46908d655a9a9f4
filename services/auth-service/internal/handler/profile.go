package handler

import (
	"errors"
	"net/http"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/model"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/usecase"
)

func (h *authHTTPHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	user, err := h.authUsecase.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeProfileError(w, err, userID)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse(user))
}

func (h *authHTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUserID(w, r)
	if !ok {
		return
	}

	var req payload.UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.authUsecase.UpdateProfile(r.Context(), userID, usecase.UpdateProfileParams{
		Name:           req.Name,
		City:           req.City,
		Phone:          req.Phone,
		SecondaryEmail: req.SecondaryEmail,
		AvatarURL:      req.AvatarURL,
	})
	if err != nil {
		h.writeProfileError(w, err, userID)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse(user))
}

func (h *authHTTPHandler) writeProfileError(w http.ResponseWriter, err error, userID int64) {
	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, usecase.ErrInvalidPhone),
		errors.Is(err, usecase.ErrInvalidCity),
		errors.Is(err, usecase.ErrNameTooLong),
		errors.Is(err, usecase.ErrSecondaryEmailIsPrimary):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrPhoneAlreadyExists),
		errors.Is(err, usecase.ErrSecondaryEmailInUse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to handle profile request")
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func profileResponse(u *model.User) payload.ProfileResponse {
	return payload.ProfileResponse{
		ID:             u.ID,
		Email:          u.Email,
		SecondaryEmail: u.SecondaryEmail,
		Phone:          u.Phone,
		Name:           u.Name,
		City:           u.City,
		AvatarURL:      u.AvatarURL,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
