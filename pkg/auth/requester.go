package auth

import (
	"context"
	"strings"

	"interviewsync/pkg/model"
)

type Role string

const (
	RoleCandidate   Role = model.RoleCandidate
	RoleInterviewer Role = model.RoleInterviewer
	RoleAdmin       Role = model.RoleAdmin
)

// ParseRole accepts any casing and reports whether the role is known.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleCandidate, RoleInterviewer, RoleAdmin:
		return r, true
	}
	return "", false
}

// Requester is the authenticated caller of an operation.
type Requester struct {
	ID   string
	Role Role
}

func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

type requesterKey struct{}

func WithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, requesterKey{}, r)
}

func RequesterFromContext(ctx context.Context) (Requester, bool) {
	r, ok := ctx.Value(requesterKey{}).(Requester)
	return r, ok
}
