package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-auth-code/internal/domain"
)

// httpError maps service errors to a status and writes the error envelope.
// Anything that is not a caller rejection, including store not-found and
// conflict errors, is returned as 500 with its raw message.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrTooManyRequests):
		status = http.StatusTooManyRequests
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, err.Error())
}
