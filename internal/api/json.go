package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
)

const maxBodySize = 12 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error      string      `json:"error"`
	Type       apperr.Kind `json:"type"`
	Suggestion string      `json:"suggestion,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindFileNotFound:     http.StatusNotFound,
	apperr.KindPermissionDenied: http.StatusForbidden,
	apperr.KindDiskFull:         http.StatusInsufficientStorage,
	apperr.KindInvalidPath:      http.StatusBadRequest,
	apperr.KindInvalidContent:   http.StatusUnprocessableEntity,
	apperr.KindEmbed:            http.StatusUnprocessableEntity,
	apperr.KindValidation:       http.StatusBadRequest,
	apperr.KindUnsupportedType:  http.StatusBadRequest,
	apperr.KindAlreadyExists:    http.StatusConflict,
	apperr.KindPathExhausted:    http.StatusConflict,
	apperr.KindLocked:           http.StatusLocked,
	apperr.KindTimeout:          http.StatusGatewayTimeout,
	apperr.KindInterrupted:      http.StatusServiceUnavailable,
	apperr.KindOutOfMemory:      http.StatusServiceUnavailable,
	apperr.KindMigration:        http.StatusInternalServerError,
	apperr.KindUnknown:          http.StatusInternalServerError,
}

// statusFor returns the HTTP status for err's kind.
func statusFor(err error) int {
	if s, ok := kindStatus[apperr.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// writeError renders err as {error, type, suggestion}. The underlying OS
// error is logged but never sent to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errResponse{Error: "internal error", Type: apperr.KindUnknown}

	var e *apperr.Error
	if errors.As(err, &e) {
		body = errResponse{Error: e.Message, Type: e.Kind, Suggestion: e.Suggestion}
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a JSON body into v and runs its Validate method.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.New(apperr.KindInvalidContent, "", "request body is too large")
		}
		return apperr.New(apperr.KindValidation, "", "invalid JSON body")
	}
	if err := v.Validate(); err != nil {
		return apperr.New(apperr.KindValidation, "", err.Error())
	}
	return nil
}
