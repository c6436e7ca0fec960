package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/edigermatthew/wonder-alt/host"
	"github.com/julienschmidt/httprouter"
)

type createRequest struct {
	Title       string `json:"title"`
	Filename    string `json:"filename"`
	MimeType    string `json:"mime"`
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	req, err := decodeEdit(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	if raw := ps.ByName("id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			s.fail(w, err)
			return
		}
		if req.ID != 0 && req.ID != id {
			s.fail(w, fmt.Errorf("%w: id mismatch", host.ErrInvalidRequest))
			return
		}
		req.ID = id
	}

	att, err := s.library.Edit(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, toJSON(att))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, fmt.Errorf("%w: %v", host.ErrInvalidRequest, err))
		return
	}
	if req.Title == "" && req.Filename == "" {
		s.fail(w, fmt.Errorf("%w: title or filename required", host.ErrInvalidRequest))
		return
	}

	att := &host.Attachment{
		Title:       req.Title,
		Filename:    req.Filename,
		MimeType:    req.MimeType,
		Caption:     req.Caption,
		Description: req.Description,
	}
	if err := s.library.Insert(r.Context(), att); err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, toJSON(att))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := parseID(ps.ByName("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	att, err := s.library.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, toJSON(att))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		writeFailure(w, status, "internal error")
		return
	}
	writeFailure(w, status, err.Error())
}

// decodeEdit accepts either a JSON EditRequest or the admin-ajax form
// encoding (id, changes[title], changes[alt], ...).
func decodeEdit(r *http.Request) (host.EditRequest, error) {
	var req host.EditRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return req, fmt.Errorf("%w: %v", host.ErrInvalidRequest, err)
		}
		if raw := r.PostForm.Get("id"); raw != "" {
			id, err := parseID(raw)
			if err != nil {
				return req, err
			}
			req.ID = id
		}
		req.Changes.Title = formField(r, "title")
		req.Changes.Caption = formField(r, "caption")
		req.Changes.Description = formField(r, "description")
		req.Changes.Alt = formField(r, "alt")
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("%w: %v", host.ErrInvalidRequest, err)
		}
	}
	return req, nil
}

func formField(r *http.Request, name string) *string {
	values, ok := r.PostForm["changes["+name+"]"]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", host.ErrInvalidRequest, raw)
	}
	return uint(id), nil
}
