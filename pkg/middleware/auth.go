package middleware

import (
	"net/http"
	"strings"

	"interviewsync/pkg/auth"
	apperrors "interviewsync/pkg/errors"
	"interviewsync/pkg/logger"
)

type TokenVerifier interface {
	Verify(token string) (auth.Requester, error)
}

// Authenticate requires a bearer token and stores the resolved requester in
// the request context.
func Authenticate(verifier TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				rejectUnauthorized(w, log, r, "missing or malformed authorization header", nil)
				return
			}

			requester, err := verifier.Verify(token)
			if err != nil {
				rejectUnauthorized(w, log, r, "invalid token", err)
				return
			}

			annotateRequester(r.Context(), requester.ID)
			next.ServeHTTP(w, r.WithContext(auth.WithRequester(r.Context(), requester)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="interviewsync"`)
	reject(w, r, log, apperrors.Unauthorized("Authentication required"), "reason", reason, "error", err)
}
