package middleware

import (
	"mime"
	"net/http"

	apperrors "interviewsync/pkg/errors"
	"interviewsync/pkg/logger"
)

const jsonMediaType = "application/json"

// ContentTypeValidation requires JSON bodies on writes. Cancel requests may
// arrive without a body and pass through.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if carriesPayload(r) {
				mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if err != nil || mediaType != jsonMediaType {
					reject(w, r, log, apperrors.UnsupportedMediaType(r.Header.Get("Content-Type")))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// carriesPayload treats an unknown length (-1) as a body, so chunked uploads
// are still checked.
func carriesPayload(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}
