package handler

import (
	"net/http"
	"noxa-api/common"
	"noxa-api/logger"
	"noxa-api/model"
	"noxa-api/service"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a principal and starts its session. `name` is accepted as an alias for `username`.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body model.RegisterRequest true "Registration payload"
// @Success      201  {object}  model.AuthResponse
// @Failure      400  {object}  common.AppError
// @Failure      409  {object}  common.AppError
// @Router       /api/v1/users/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		return fromServiceError(err, "Could not register user")
	}

	common.WriteJSON(w, http.StatusCreated, res)
	return nil
}

// Login godoc
// @Summary      Log in
// @Description  Verifies credentials and replaces any existing refresh session.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body model.LoginRequest true "Credentials"
// @Success      200  {object}  model.AuthResponse
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/v1/users/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		return fromServiceError(err, "Could not log in")
	}

	common.WriteJSON(w, http.StatusOK, res)
	return nil
}

// Refresh godoc
// @Summary      Rotate tokens
// @Description  Exchanges a refresh token for a new pair. Each refresh token works once.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body model.RefreshRequest true "Refresh token"
// @Success      200  {object}  model.TokenPair
// @Failure      401  {object}  common.AppError
// @Router       /api/v1/users/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		return fromServiceError(err, "Could not refresh session")
	}

	common.WriteJSON(w, http.StatusOK, pair)
	return nil
}

// Logout godoc
// @Summary      Log out
// @Description  Ends the session holding the given refresh token. Succeeds even if no session matches.
// @Tags         users
// @Accept       json
// @Param        request body model.RefreshRequest false "Refresh token"
// @Success      204
// @Router       /api/v1/users/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	// A missing or empty token is a no-op, so the validation result is ignored.
	var req model.RefreshRequest
	_ = common.DecodeOptional(r, &req)

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		return fromServiceError(err, "Could not log out")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Me godoc
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]model.Principal
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/v1/users/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	principalID, appErr := principalFrom(r)
	if appErr != nil {
		return appErr
	}

	principal, err := h.service.Me(r.Context(), principalID)
	if err != nil {
		return fromServiceError(err, "Could not load user")
	}

	logger.Log.WithField("principal_id", principalID).Debug("Profile requested")
	common.WriteJSON(w, http.StatusOK, map[string]*model.Principal{"user": principal})
	return nil
}
