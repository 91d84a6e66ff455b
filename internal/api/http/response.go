package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/security"
	"velorent-backend/internal/service"
)

const maxBodyBytes = 1 << 20

// Envelope wraps every response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Field     string      `json:"field,omitempty"`
	Conflicts []RentalDTO `json:"conflicts,omitempty"`
	RentalIDs []string    `json:"rental_ids,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func respondCreated(w http.ResponseWriter, data interface{}, message string) {
	respondJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, Message: message})
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

// badRequest reports a malformed request that never reached a service.
func badRequest(w http.ResponseWriter, field, format string, args ...interface{}) {
	respondError(w, domain.NewValidationError(field, format, args...))
}

// respondError maps the domain error taxonomy onto HTTP statuses. Anything
// unrecognised is logged and hidden behind a 500.
func respondError(w http.ResponseWriter, err error) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		conflict   *domain.ConflictError
		integrity  *domain.IntegrityError
	)

	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, Envelope{Error: &ErrorBody{
			Code: "validation_error", Message: validation.Message, Field: validation.Field,
		}})
	case errors.As(err, &notFound):
		respondJSON(w, http.StatusNotFound, Envelope{Error: &ErrorBody{
			Code: "not_found", Message: notFound.Error(),
		}})
	case errors.As(err, &conflict):
		respondJSON(w, http.StatusConflict, Envelope{Error: &ErrorBody{
			Code: "conflict", Message: conflict.Message, Conflicts: toRentalDTOs(conflict.Conflicts),
		}})
	case errors.As(err, &integrity):
		logger.Error("Integrity violation surfaced to client", "error", err, "rental_ids", integrity.RentalIDs)
		respondJSON(w, http.StatusInternalServerError, Envelope{Error: &ErrorBody{
			Code: "integrity_error", Message: integrity.Message, RentalIDs: integrity.RentalIDs,
		}})
	case errors.Is(err, service.ErrInvalidCredentials):
		respondJSON(w, http.StatusUnauthorized, Envelope{Error: &ErrorBody{
			Code: "unauthorized", Message: err.Error(),
		}})
	case errors.Is(err, security.ErrInvalidToken), errors.Is(err, security.ErrExpiredToken), errors.Is(err, security.ErrWrongTokenType):
		respondJSON(w, http.StatusUnauthorized, Envelope{Error: &ErrorBody{
			Code: "unauthorized", Message: err.Error(),
		}})
	default:
		logger.Error("Unhandled request error", "error", err)
		respondJSON(w, http.StatusInternalServerError, Envelope{Error: &ErrorBody{
			Code: "internal_error", Message: "internal server error",
		}})
	}
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "request body is required")
		}
		return domain.NewValidationError("body", "invalid request body: %v", err)
	}
	if dec.More() {
		return domain.NewValidationError("body", "request body must contain a single JSON object")
	}
	return nil
}

func unauthorized(w http.ResponseWriter, format string, args ...interface{}) {
	respondJSON(w, http.StatusUnauthorized, Envelope{Error: &ErrorBody{
		Code: "unauthorized", Message: fmt.Sprintf(format, args...),
	}})
}
