// Package model defines the core domain types shared across the application.
package model

// Entity is implemented by every row type the sync layer manages.
type Entity interface {
	// EntityID returns the server-assigned identity of the row.
	EntityID() string
	// OwnerID returns the opaque key of the user owning the row.
	OwnerID() string
}
