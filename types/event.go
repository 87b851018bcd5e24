package types

import "time"

// Account event types.
const (
	EventAccountRegistered = "account.registered"
	EventAccountLoggedIn   = "account.logged_in"
)

// AccountEvent describes a successful registration or login.
type AccountEvent struct {
	Type       string    `json:"type"`
	UserID     int       `json:"user_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	OccurredAt time.Time `json:"occurred_at"`
}
