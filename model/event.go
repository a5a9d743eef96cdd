// file: model/event.go

package model

import "time"

// EventType names the domain action behind a notification.
type EventType string

const (
	EventTaskCreated     EventType = "task_created"
	EventTaskUpdated     EventType = "task_updated"
	EventTaskDeleted     EventType = "task_deleted"
	EventGoalCreated     EventType = "goal_created"
	EventGoalUpdated     EventType = "goal_updated"
	EventGoalCompleted   EventType = "goal_completed"
	EventReminderCreated EventType = "reminder_created"
	EventReminderUpdated EventType = "reminder_updated"
	EventReminderDeleted EventType = "reminder_deleted"
	EventNoteCreated     EventType = "note_created"
	EventNoteUpdated     EventType = "note_updated"
	EventNoteDeleted     EventType = "note_deleted"
)

// ItemSummary carries only what a notification needs, never the full record.
type ItemSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Status string `json:"status,omitempty"`
}

// NotificationEvent is built per dispatch and never persisted here.
type NotificationEvent struct {
	EventID   string       `json:"eventId"`
	Timestamp time.Time    `json:"timestamp"`
	Type      EventType    `json:"type"`
	ItemType  string       `json:"itemType,omitempty"`
	Item      *ItemSummary `json:"item,omitempty"`
	Message   string       `json:"message,omitempty"`
}
