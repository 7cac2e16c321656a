package httpapi

import (
	"net/http"
	"strings"

	clockport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/clock"
)

// guardExemptPaths lists paths an authenticated member can always reach, so
// a member blocked on approval or an overdue picture can still see their
// status, upload the picture, submit the contact form, and receive webhooks.
// Entries ending in "/" match as prefixes; the rest match exactly, so the
// public contact form is exempt while the staff message routes underneath it
// are not.
var guardExemptPaths = []string{
	"/healthz",
	"/api/v1/me/status",
	"/api/v1/me/picture",
	"/api/v1/webhooks/",
	"/api/v1/contact",
}

// NewPictureGuardMiddleware limits access for authenticated members who are
// not yet approved or whose profile picture is overdue. Unauthenticated
// requests pass through untouched; the identity middleware runs first.
func NewPictureGuardMiddleware(clk clockport.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, ok := ActorFromContext(r.Context())
			if !ok || m.IsStaffLike() || guardExempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if !m.Approved {
				writeError(w, r, http.StatusForbidden, "ACCOUNT_PENDING",
					"your account is awaiting approval", map[string]any{
						"redirectTo": "/api/v1/me/status",
					})
				return
			}
			if m.IsPictureOverdue(clk.Now()) {
				writeError(w, r, http.StatusForbidden, "PICTURE_REQUIRED",
					"your profile picture upload deadline has passed", map[string]any{
						"redirectTo": "/api/v1/me/picture",
					})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func guardExempt(path string) bool {
	for _, p := range guardExemptPaths {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
		} else if path == p {
			return true
		}
	}
	return false
}
