package errorhandler

import (
	"net/http"

	"github.com/eventhub/eventhub-api/internal/pkg/apperror"
	"github.com/eventhub/eventhub-api/internal/pkg/logger"
	"github.com/eventhub/eventhub-api/internal/pkg/response"
)

// StatusFor maps an error kind to its HTTP status.
// Conflicts stay on 400 for compatibility with existing clients.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindConflict:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes err as a {message} body. Errors outside the taxonomy
// are logged and reported as a generic 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContext(r.Context())

	appErr, ok := apperror.As(err)
	if !ok {
		l.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Unhandled request error")
		response.InternalError(w)
		return
	}

	status := StatusFor(appErr.Kind)
	if appErr.Err != nil {
		l.Warn().
			Err(appErr.Err).
			Int("status_code", status).
			Msg(appErr.Message)
	}

	if len(appErr.Fields) > 0 {
		response.ErrorWithDetails(w, status, appErr.Message, appErr.Fields)
		return
	}
	response.Error(w, status, appErr.Message)
}

// NotFoundRoute answers unknown routes.
func NotFoundRoute(w http.ResponseWriter, r *http.Request) {
	response.NotFound(w, "Route not found")
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}
