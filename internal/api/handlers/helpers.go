package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"recruitgate/internal/services"
	"recruitgate/pkg/utils"
)

const maxJSONBody = 1 << 20

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	utils.WriteJSONStatus(w, statusCode, Response{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// DecodeJSON reads a single JSON document from the request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", services.ErrInvalidInput)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body must contain a single JSON value", services.ErrInvalidInput)
	}
	return nil
}

// StatusFor maps a service error to the HTTP status the API answers with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrMismatch):
		return http.StatusForbidden
	case errors.Is(err, services.ErrExpired), errors.Is(err, services.ErrCancelled):
		return http.StatusGone
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrDependency):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// WriteServiceError answers with the mapped status. Unclassified errors are
// logged and reported without detail.
func WriteServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		utils.Logger.WithError(err).Error("request failed")
		utils.WriteError(w, "internal server error", status)
		return
	}
	if status == http.StatusServiceUnavailable {
		utils.Logger.WithError(err).Warn("dependency unavailable")
	}
	utils.WriteError(w, err.Error(), status)
}

// RequireUserID returns the authenticated caller or answers 401.
func RequireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := utils.UserID(r.Context())
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

func QueryParam(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}
