package models

import "time"

// Media is a stored media record keyed by attachment ID.
type Media struct {
	AttachmentID string    `json:"attachment_id"`
	SHA256       string    `json:"sha256"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}
