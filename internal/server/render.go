package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"selecao/internal/docstore"
	"selecao/internal/forms"
	"selecao/pkg/types"
)

const maxFormMemory = 10 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) writeError(w http.ResponseWriter, _ *http.Request, status int, msg string, fields map[string]string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Fields: fields})
}

func (s *Service) validationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	s.writeError(w, r, http.StatusUnprocessableEntity, "Corrija os campos destacados.", fields)
}

func (s *Service) internalServerError(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusInternalServerError, "internal server error", nil)
}

// handleError maps repository and validation errors onto status codes.
// Anything unrecognised is logged and reported as a 500.
func (s *Service) handleError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, types.ErrDuplicateProcess),
		errors.Is(err, types.ErrDuplicateApplication),
		errors.Is(err, types.ErrHasApplications),
		errors.Is(err, types.ErrRegistrationClosed),
		errors.Is(err, forms.ErrDuplicateField):
		s.writeError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, types.ErrInvalidProcessName),
		errors.Is(err, types.ErrInvalidUID),
		errors.Is(err, types.ErrEmptyStatus),
		errors.Is(err, forms.ErrEmptyFieldName),
		errors.Is(err, forms.ErrReservedField),
		errors.Is(err, forms.ErrInvalidFieldType),
		errors.Is(err, forms.ErrFieldIndex):
		s.writeError(w, r, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		entry := s.logger.WithError(err).WithField("path", r.URL.Path)
		if errors.Is(err, docstore.ErrTransport) {
			entry = entry.WithField("transport", true)
		}
		entry.Error(msg)
		s.internalServerError(w, r)
	}
}

// decodeBody fills v from a JSON body or from form values, depending on the
// request content type.
func decodeBody(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("invalid json body: %w", err)
		}
		return nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return fmt.Errorf("invalid multipart body: %w", err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("invalid form body: %w", err)
		}
	}

	if err := decoder.Decode(v, r.PostForm); err != nil {
		return fmt.Errorf("invalid form body: %w", err)
	}

	return nil
}
