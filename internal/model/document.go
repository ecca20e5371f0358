package model

import "time"

// Document is an uploaded file with user-assigned metadata. The file
// itself lives in external blob storage; FileURL points at it.
type Document struct {
	UploadDate time.Time `json:"upload_date"`
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	FileURL    string    `json:"file_url"`
	FileName   string    `json:"file_name"`
	Tags       []string  `json:"tags"`
	FileSize   int64     `json:"file_size"`
}

// EntityID implements Entity.
func (d Document) EntityID() string { return d.ID }

// OwnerID implements Entity.
func (d Document) OwnerID() string { return d.UserID }

// DocumentPatch is a partial update; nil fields are left unchanged.
// UploadDate is server-assigned and immutable, so it has no patch field.
type DocumentPatch struct {
	Title    *string
	Category *string
	FileURL  *string
	FileName *string
	FileSize *int64
	Tags     *[]string
}
