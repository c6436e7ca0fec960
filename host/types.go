package host

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when an attachment does not exist.
	ErrNotFound = errors.New("host: attachment not found")

	// ErrInvalidRequest is returned when a request fails validation.
	ErrInvalidRequest = errors.New("host: invalid request")
)

// Hook names fired by the media library.
const (
	FilterInsertAttachmentData = "insert_attachment_data"
	ActionAttachmentInserted   = "attachment_inserted"
	ActionAttachmentUpdated    = "attachment_updated"
	ActionAttachmentEdited     = "attachment_edited"
)

// Attachment is a media library record.
type Attachment struct {
	ID          uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
	GUID        string
	Title       string
	Filename    string
	MimeType    string
	Caption     string
	Description string
	AltText     string // Populated on read from attachment metadata
}

// AttachmentData is passed through the insert_attachment_data filter before a
// record is persisted. Update is false for newly created attachments.
type AttachmentData struct {
	ID          uint
	GUID        string
	Title       string
	Filename    string
	MimeType    string
	Caption     string
	Description string
	Update      bool
}

// AttachmentChanges holds the optional fields of an edit request. A nil field
// was not submitted by the caller.
type AttachmentChanges struct {
	Title       *string `json:"title,omitempty"`
	Caption     *string `json:"caption,omitempty"`
	Description *string `json:"description,omitempty"`
	Alt         *string `json:"alt,omitempty"`
}

// EditRequest is the typed payload of the attachment edit endpoint.
type EditRequest struct {
	ID      uint              `json:"id"`
	Changes AttachmentChanges `json:"changes"`
}

// EditEvent is the payload of the attachment_edited action.
type EditEvent struct {
	Attachment  *Attachment
	AltSupplied bool
}

const maxFieldLength = 4096

// Validate checks the request before any attachment logic runs.
func (r EditRequest) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("%w: id required", ErrInvalidRequest)
	}
	for name, field := range map[string]*string{
		"title":       r.Changes.Title,
		"caption":     r.Changes.Caption,
		"description": r.Changes.Description,
		"alt":         r.Changes.Alt,
	} {
		if field != nil && len(*field) > maxFieldLength {
			return fmt.Errorf("%w: %s too long", ErrInvalidRequest, name)
		}
	}
	return nil
}
