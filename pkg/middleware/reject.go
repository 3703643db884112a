package middleware

import (
	"net/http"

	apperrors "interviewsync/pkg/errors"
	httputil "interviewsync/pkg/http"
	"interviewsync/pkg/logger"
)

// reject logs a short-circuited request and writes err in the same envelope
// the handlers use.
func reject(w http.ResponseWriter, r *http.Request, log *logger.Logger, err *apperrors.AppError, args ...any) {
	attrs := append([]any{
		"request_id", RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"code", err.Code,
	}, args...)
	log.Warn(err.Message, attrs...)
	_ = httputil.WriteError(w, err)
}
