package middleware

import (
	"net/http"

	apperrors "interviewsync/pkg/errors"
	"interviewsync/pkg/logger"
)

// MaxRequestSize rejects bodies declared larger than maxBytes and caps the
// rest with http.MaxBytesReader.
func MaxRequestSize(maxBytes int64, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				reject(w, r, log, apperrors.PayloadTooLarge(maxBytes), "content_length", r.ContentLength)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
