package model

import (
	"time"
)

const (
	FileTypePhoto        = "photo"
	FileTypeMessageImage = "message_image"

	OwnerTypeUser = "user"
	OwnerTypeChat = "chat"
)

// File is an uploaded media object: a profile photo or an image sent in a
// chat.
type File struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	OwnerType    string    `db:"owner_type" json:"ownerType"`
	OwnerID      string    `db:"owner_id" json:"ownerId"`
	Type         string    `db:"type" json:"type"`
	Filename     string    `db:"filename" json:"-"`
	OriginalName string    `db:"original_name" json:"originalName"`
	MimeType     string    `db:"mime_type" json:"mimeType"`
	Size         int64     `db:"size" json:"size"`
	StoragePath  string    `db:"storage_path" json:"-"`
	Public       bool      `db:"public" json:"public"` // public: long-lived presigned URL
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
