package handler

import (
	"net/http"
	"noxa-api/common"
	"noxa-api/logger"
	"noxa-api/model"
	"noxa-api/service"

	"github.com/sirupsen/logrus"
)

// NotificationHandler is the ingestion hook record-owning services use to publish domain events.
type NotificationHandler struct {
	notifier service.Notifier
}

func NewNotificationHandler(notifier service.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// Publish godoc
// @Summary      Publish a domain event
// @Description  Queues the event for the caller's sockets and push subscriptions. Delivery is best effort.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.PublishEventRequest true "Event"
// @Success      202  {object}  map[string]string
// @Failure      400  {object}  common.AppError
// @Router       /api/v1/notifications/events [post]
func (h *NotificationHandler) Publish(w http.ResponseWriter, r *http.Request) *common.AppError {
	principalID, appErr := principalFrom(r)
	if appErr != nil {
		return appErr
	}

	var req model.PublishEventRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	event := model.NotificationEvent{
		EventID:  req.EventID,
		Type:     req.Type,
		ItemType: req.ItemType,
		Item:     req.Item,
		Message:  req.Message,
	}
	logger.Log.WithFields(logrus.Fields{
		"principal_id": principalID,
		"event_type":   req.Type,
	}).Info("Domain event received")

	h.notifier.Dispatch(event, principalID)
	common.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	return nil
}
