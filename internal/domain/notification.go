package domain

import "time"

// Notification is a one-way message delivered to a single recipient.
type Notification struct {
	ID          string
	RecipientID string
	Message     string
	Read        bool
	CreatedAt   time.Time
}

// Attachment stores metadata for a file kept in the blob store.
type Attachment struct {
	ID          string
	ComplaintID string
	FileName    string
	StorageKey  string
	MimeType    string
	SizeBytes   int64
	UploadedBy  string
	UploadedAt  time.Time
}
