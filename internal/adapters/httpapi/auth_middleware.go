package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

// MemberResolver loads the member bound to an authenticated identity.
// Satisfied by *registration.Service.
type MemberResolver interface {
	GetMember(ctx context.Context, id domain.MemberID) (domain.Member, error)
}

// NewIdentityMiddleware resolves the calling member from the X-Member-ID
// header and stores it on the request context. Upstream infrastructure (the
// university SSO proxy) authenticates the session and injects the header;
// this service only resolves it to a member record.
//
// Requests without the header pass through unauthenticated; handlers that
// need an actor call requireActor themselves.
func NewIdentityMiddleware(members MemberResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get("X-Member-ID"))
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			m, err := members.GetMember(r.Context(), domain.MemberID(id))
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unknown member identity", nil)
				return
			}
			if !m.IsActive {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "account is deactivated", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), m)))
		})
	}
}

// requireActor extracts the authenticated member or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Member, bool) {
	m, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
	}
	return m, ok
}
