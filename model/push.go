package model

import "time"

type PushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription is a browser-issued push endpoint. Endpoint is unique within a principal.
type PushSubscription struct {
	Endpoint       string    `json:"endpoint"`
	ExpirationTime *int64    `json:"expirationTime"`
	Keys           PushKeys  `json:"keys"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PushMessage is the rendered push payload.
type PushMessage struct {
	Title string          `json:"title"`
	Body  string          `json:"body"`
	Data  PushMessageData `json:"data"`
}

type PushMessageData struct {
	EventID     string    `json:"eventId"`
	Type        EventType `json:"type"`
	ItemType    string    `json:"itemType"`
	ItemID      *string   `json:"itemId"`
	DeepLinkURL string    `json:"deepLinkUrl"`
}
