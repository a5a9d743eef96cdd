// file: service/push_templates.go

package service

import (
	"noxa-api/model"
	"strconv"
	"time"
)

type pushTemplate struct {
	title  string
	prefix string
}

var pushTemplates = map[model.EventType]pushTemplate{
	model.EventTaskCreated:     {"Task Created", "Created"},
	model.EventTaskUpdated:     {"Task Updated", "Updated"},
	model.EventTaskDeleted:     {"Task Deleted", "Deleted"},
	model.EventGoalCreated:     {"Goal Created", "Created"},
	model.EventGoalUpdated:     {"Goal Updated", "Updated"},
	model.EventGoalCompleted:   {"Goal Completed", "Completed"},
	model.EventReminderCreated: {"Reminder Set", "Reminder"},
	model.EventReminderUpdated: {"Reminder Updated", "Updated"},
	model.EventReminderDeleted: {"Reminder Deleted", "Deleted"},
	model.EventNoteCreated:     {"Note Created", "Created"},
	model.EventNoteUpdated:     {"Note Updated", "Updated"},
	model.EventNoteDeleted:     {"Note Deleted", "Deleted"},
}

const (
	fallbackPushTitle = "Noxa Notification"
	defaultItemTitle  = "Activity update"
	defaultItemType   = "system"
)

// RenderPushMessage turns an event into the payload shown by the browser. Unknown event types
// fall back to a generic title with the event message as the body.
func RenderPushMessage(event model.NotificationEvent, deepLinkURL string) model.PushMessage {
	itemTitle := defaultItemTitle
	var itemID *string
	if event.Item != nil {
		if event.Item.Title != "" {
			itemTitle = event.Item.Title
		}
		if event.Item.ID != "" {
			id := event.Item.ID
			itemID = &id
		}
	}

	msg := model.PushMessage{}
	if tpl, ok := pushTemplates[event.Type]; ok {
		msg.Title = tpl.title
		msg.Body = tpl.prefix + ": " + itemTitle
	} else {
		msg.Title = fallbackPushTitle
		msg.Body = itemTitle
		if event.Message != "" {
			msg.Body = event.Message
		}
	}

	eventID := event.EventID
	if eventID == "" {
		eventID = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	itemType := event.ItemType
	if itemType == "" {
		itemType = defaultItemType
	}

	msg.Data = model.PushMessageData{
		EventID:     eventID,
		Type:        event.Type,
		ItemType:    itemType,
		ItemID:      itemID,
		DeepLinkURL: deepLinkURL,
	}
	return msg
}
