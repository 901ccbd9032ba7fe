package models

import (
	"strings"
	"time"
)

// UploadedFile is one ingested document, ready to be sent to the AI service.
// Content holds extracted text for documents and base64-encoded bytes for
// images. Immutable once created; discarded on session reset.
type UploadedFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`     // MIME type declared by the browser
	MimeType   string    `json:"mimeType"` // MIME type presented to the AI service
	Content    string    `json:"-"`        // never echoed back to the client
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// IsImage reports whether the file is transmitted as inline binary data.
func (f *UploadedFile) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}
