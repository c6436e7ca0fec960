package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/edigermatthew/wonder-alt/host"
)

// envelope mirrors the admin-ajax JSON reply shape.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type message struct {
	Message string `json:"message"`
}

type attachmentJSON struct {
	ID          uint      `json:"id"`
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	Mime        string    `json:"mime"`
	Caption     string    `json:"caption"`
	Description string    `json:"description"`
	Alt         string    `json:"alt"`
	Date        time.Time `json:"date"`
	Modified    time.Time `json:"modified"`
}

func toJSON(att *host.Attachment) attachmentJSON {
	return attachmentJSON{
		ID:          att.ID,
		GUID:        att.GUID,
		Title:       att.Title,
		Filename:    att.Filename,
		Mime:        att.MimeType,
		Caption:     att.Caption,
		Description: att.Description,
		Alt:         att.AltText,
		Date:        att.CreatedAt,
		Modified:    att.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Data: message{Message: msg}})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, host.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, host.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
