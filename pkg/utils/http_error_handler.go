package utils

import (
	"net/http"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WriteError writes message as the standard error envelope. Server errors
// are logged here so handlers do not have to.
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	if statusCode >= http.StatusInternalServerError {
		Logger.WithField("status", statusCode).Warn(message)
	}
	WriteJSONStatus(w, statusCode, ErrorResponse{Status: "error", Message: message})
}
