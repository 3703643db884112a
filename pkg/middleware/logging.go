package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"interviewsync/pkg/logger"
)

type contextKey string

const RequestIDHeader = "X-Request-ID"

const (
	RequestIDKey   contextKey = "request_id"
	requestInfoKey contextKey = "request_info"
)

// requestInfo is filled in by inner middleware so the completion log can
// name the authenticated requester.
type requestInfo struct {
	requesterID string
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(status int) {
	if sr.status == 0 {
		sr.status = status
		sr.ResponseWriter.WriteHeader(status)
	}
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// RequestLogging assigns a request id, reusing a well-formed inbound
// X-Request-ID, and logs one line per request. Server errors log at error
// level and client errors at warn.
func RequestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := inboundRequestID(r.Header.Get(RequestIDHeader))

			info := &requestInfo{}
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = context.WithValue(ctx, requestInfoKey, info)
			w.Header().Set(RequestIDHeader, requestID)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			attrs := []any{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if info.requesterID != "" {
				attrs = append(attrs, "requester_id", info.requesterID)
			}

			switch {
			case rec.status >= http.StatusInternalServerError:
				log.Error("HTTP request failed", attrs...)
			case rec.status >= http.StatusBadRequest:
				log.Warn("HTTP request rejected", attrs...)
			default:
				log.Info("HTTP request completed", attrs...)
			}
		})
	}
}

func inboundRequestID(header string) string {
	if id, err := uuid.Parse(header); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// RequestIDFromContext returns the id assigned by RequestLogging, or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func annotateRequester(ctx context.Context, requesterID string) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.requesterID = requesterID
	}
}

func requesterIDFromContext(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info.requesterID
	}
	return ""
}
