package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/orgconf/internal/adapter/http/dto"
	"github.com/iho/orgconf/internal/adapter/http/middleware"
	"github.com/iho/orgconf/internal/domain"
)

// Error codes that clients branch on.
const (
	codePendingConfirmation = "pending-confirmation"
	codeResetFailed         = "destructive-reset-failed"
	codeValidation          = "validation-failed"
	codeStaleSession        = "stale-session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status and error body. message is used as
// the error code when err carries no code of its own.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := mapDomainError(err)
	resp := dto.ErrorResponse{Error: message, Message: err.Error()}

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrPendingConfirmation):
		resp.Error = codePendingConfirmation
	case errors.Is(err, domain.ErrDestructiveResetFailed):
		resp.Error = codeResetFailed
	case errors.Is(err, domain.ErrStaleSession):
		resp.Error = codeStaleSession
	case errors.As(err, &verr):
		resp.Error = codeValidation
		resp.Field = string(verr.Field)
		resp.Reason = verr.Reason
		resp.Message = verr.Message
		if verr.Field != "" {
			resp.Fields = map[string]string{string(verr.Field): verr.Message}
		}
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("error_code", resp.Error).Msg("request failed")
	}

	writeJSON(w, status, resp)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrReadOnlySession):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrPendingConfirmation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStaleSession):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDestructiveResetFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrOracleUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNoPendingChange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMalformedInput),
		errors.Is(err, domain.ErrPostalNotFound),
		errors.Is(err, domain.ErrCityMismatch),
		errors.Is(err, domain.ErrCityRequired),
		errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrUniquenessViolation),
		errors.Is(err, domain.ErrInvalidFieldValue),
		errors.Is(err, domain.ErrUnsupportedField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrInvalidEntityKind),
		errors.Is(err, domain.ErrEntityRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes and validates a request body. An empty body is accepted
// when allowEmpty is set. It writes the error response and returns false on
// failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, req any, allowEmpty bool) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(req)
	if err != nil && !(allowEmpty && errors.Is(err, io.EOF)) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}

	if fields := dto.Validate(req); fields != nil {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:   codeValidation,
			Message: "request failed validation",
			Fields:  fields,
		})
		return false
	}

	return true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// requestMeta returns the acting user and request ID for audit records.
func requestMeta(r *http.Request) (actor, requestID string) {
	return middleware.ActorFromContext(r.Context()), chimiddleware.GetReqID(r.Context())
}
