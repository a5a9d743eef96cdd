package handler

import (
	"errors"
	"net/http"
	"noxa-api/common"
	"noxa-api/service"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// fromServiceError maps service sentinels to HTTP errors. Unknown errors become a 500 with fallback as the message.
func fromServiceError(err error, fallback string) *common.AppError {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return common.NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.NewAppError(http.StatusUnauthorized, "Incorrect password", err)
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidToken):
		return common.NewAppError(http.StatusUnauthorized, "Invalid or expired refresh token", err)
	case errors.Is(err, service.ErrNotFound):
		return common.NewAppError(http.StatusNotFound, "User not found", err)
	case errors.Is(err, service.ErrConflict):
		return common.NewAppError(http.StatusConflict, "Email or username already exists", err)
	default:
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}
}
