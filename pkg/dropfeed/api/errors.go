package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/dropfeed/pkg/dropfeed"
)

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}

// writeServiceError maps service errors onto HTTP responses. Anything that
// is not a client error is reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *dropfeed.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.Message)
	case errors.Is(err, dropfeed.ErrInvalidCategory):
		writeError(w, r, http.StatusBadRequest, dropfeed.ErrInvalidCategory.Error())
	case errors.Is(err, dropfeed.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
	case dropfeed.IsNotFound(err):
		writeError(w, r, http.StatusNotFound, "not found")
	default:
		slog.Error("Failed to "+op, "error", err, "path", r.URL.Path)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
