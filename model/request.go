// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new principal.
// Name is accepted as an alias for Username.
type RegisterRequest struct {
	Username        string `json:"username" validate:"max=60"`
	Name            string `json:"name" validate:"max=60"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token for both refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// UnsubscribeRequest removes one endpoint, or every subscription when Endpoint is empty.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// PublishEventRequest is how the record-owning services hand a domain event to the notification router.
// The event always targets the authenticated caller; broadcasts are server-side only.
type PublishEventRequest struct {
	EventID  string       `json:"eventId"`
	Type     EventType    `json:"type" validate:"required"`
	ItemType string       `json:"itemType" validate:"omitempty,oneof=task reminder goal note"`
	Item     *ItemSummary `json:"item"`
	Message  string       `json:"message" validate:"max=500"`
}

// AuthResponse is returned from register and login.
type AuthResponse struct {
	User *Principal `json:"user"`
	TokenPair
}

// SubscribeRequest accepts either {"subscription": {...}} or the browser's subscription object as the body.
type SubscribeRequest struct {
	Subscription *PushSubscription `json:"subscription"`
	PushSubscription
}

func (r SubscribeRequest) Resolve() PushSubscription {
	if r.Subscription != nil {
		return *r.Subscription
	}
	return r.PushSubscription
}
