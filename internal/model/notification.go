package model

import "time"

// Notification is a message surfaced to the user, e.g. an upcoming
// renewal reminder.
type Notification struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
}

// EntityID implements Entity.
func (n Notification) EntityID() string { return n.ID }

// OwnerID implements Entity.
func (n Notification) OwnerID() string { return n.UserID }

// NotificationPatch is a partial update; nil fields are left unchanged.
type NotificationPatch struct {
	IsRead *bool
}

// Profile is the user record kept alongside the entity tables. The
// authentication provider owns the session; this is only the mirrored
// row.
type Profile struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	FullName  *string   `json:"full_name"`
	ID        string    `json:"id"`
	Email     string    `json:"email"`
}
