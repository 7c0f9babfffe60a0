// Package handlers provides the HTTP handlers for the Wikiplant server.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Nexakreation/Wikiplant2/internal/domain"
	"github.com/Nexakreation/Wikiplant2/internal/observability"
)

const msgTimeout = "The request took too long. Please try again."

// statusFor maps an error to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	}
	switch domain.TypeOf(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeUpstream, domain.ErrorTypeIncomplete:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the text shown to the user for err. Errors that are not
// domain errors are not echoed back.
func messageFor(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return msgTimeout
	}
	if domain.TypeOf(err) == "" {
		return "An unexpected error occurred. Please try again."
	}
	return domain.MessageOf(err)
}

func writeJSON(w http.ResponseWriter, logger *observability.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	json.NewEncoder(w).Encode(resp)
}

// writeDomainError logs err and writes it in the JSON error shape.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *observability.Logger, err error) {
	status := statusFor(err)
	log := logger.WithContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		log.Warn().Err(err).Int("status", status).Msg("Request rejected")
	}
	writeError(w, status, messageFor(err), "")
}
