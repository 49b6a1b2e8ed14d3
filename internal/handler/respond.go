package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/templui/stash/internal/service"
	"github.com/templui/stash/internal/validation"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, err = w.Write(body)
	if err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Error: message})
}

// respondWithServiceError maps the service error taxonomy onto HTTP.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrConflict):
		respondWithJSON(w, http.StatusConflict, errorResponse{Error: "concurrent update, please retry", Retryable: true})
	default:
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Retryable: true})
	}
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields and
// bodies over 1 MiB.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &validation.Error{Field: "body", Message: "request body too large"}
		}
		if errors.Is(err, io.EOF) {
			return &validation.Error{Field: "body", Message: "request body is empty"}
		}
		return &validation.Error{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if dec.More() {
		return &validation.Error{Field: "body", Message: "request body must contain a single JSON object"}
	}

	return nil
}
