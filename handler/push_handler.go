package handler

import (
	"net/http"
	"noxa-api/common"
	"noxa-api/logger"
	"noxa-api/model"
	"noxa-api/service"

	"github.com/sirupsen/logrus"
)

type PushHandler struct {
	service *service.PushService
}

func NewPushHandler(service *service.PushService) *PushHandler {
	return &PushHandler{service: service}
}

// PublicKey godoc
// @Summary      VAPID public key
// @Description  Returns the key browsers need to create a push subscription. `enabled` is false when push is not configured.
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/notifications/push/public-key [get]
func (h *PushHandler) PublicKey(w http.ResponseWriter, r *http.Request) *common.AppError {
	common.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"publicKey": h.service.PublicKey(),
		"enabled":   h.service.Configured(),
	})
	return nil
}

// Subscribe godoc
// @Summary      Save a push subscription
// @Description  Stores the browser subscription. Re-subscribing with the same endpoint replaces its keys.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.PushSubscription true "Browser push subscription"
// @Success      201  {object}  model.PushSubscription
// @Failure      400  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/v1/notifications/push/subscription [post]
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) *common.AppError {
	principalID, appErr := principalFrom(r)
	if appErr != nil {
		return appErr
	}

	var req model.SubscribeRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	sub, err := h.service.Subscribe(r.Context(), principalID, req.Resolve())
	if err != nil {
		return fromServiceError(err, "Could not save push subscription")
	}

	logger.Log.WithFields(logrus.Fields{
		"principal_id": principalID,
		"endpoint":     sub.Endpoint,
	}).Info("Push subscription saved")
	common.WriteJSON(w, http.StatusCreated, sub)
	return nil
}

// Unsubscribe godoc
// @Summary      Remove push subscriptions
// @Description  Removes the given endpoint, or every subscription of the user when no endpoint is sent.
// @Tags         notifications
// @Accept       json
// @Security     BearerAuth
// @Param        request body model.UnsubscribeRequest false "Endpoint to remove"
// @Success      204
// @Failure      404  {object}  common.AppError
// @Router       /api/v1/notifications/push/subscription [delete]
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) *common.AppError {
	principalID, appErr := principalFrom(r)
	if appErr != nil {
		return appErr
	}

	var req model.UnsubscribeRequest
	if appErr := common.DecodeOptional(r, &req); appErr != nil {
		return appErr
	}
	if req.Endpoint == "" {
		req.Endpoint = r.URL.Query().Get("endpoint")
	}

	if err := h.service.Unsubscribe(r.Context(), principalID, req.Endpoint); err != nil {
		return fromServiceError(err, "Could not remove push subscription")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
