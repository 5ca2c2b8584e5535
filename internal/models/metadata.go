package models

import "time"

// FileMetadata describes one markdown file. It is recomputed from the
// filesystem on every call and never cached.
type FileMetadata struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"contentType"`
	FilePath    string      `json:"filePath"` // storage-relative, forward slashes
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Size        int64       `json:"size"`
	Checksum    string      `json:"checksum,omitempty"`
}
