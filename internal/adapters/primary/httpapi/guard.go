package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
)

// PageGuard applique la table de décision à chaque navigation.
// Un compte bloqué perd son cookie : la navigation suivante arrive anonyme sur /login.
func PageGuard(g *domain.Guard, cookieSecure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := ViewerFromContext(r.Context())
			d := g.Decide(viewer, r.URL.Path)
			if !d.Allow {
				if viewer.IsBlocked() {
					clearSessionCookie(w, cookieSecure)
				}
				slog.DebugContext(r.Context(), "navigation redirected", "path", r.URL.Path, "location", d.Location)
				http.Redirect(w, r, d.Location, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireViewer : 401 sans session, 403 pour un compte bloqué.
func RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := ViewerFromContext(r.Context())
		switch {
		case v == nil:
			writeError(w, r, domain.ErrUnauthenticated)
		case v.IsBlocked():
			writeError(w, r, domain.ErrBlocked)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// RequireAdmin s'utilise après RequireViewer.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ViewerFromContext(r.Context()).IsAdmin() {
			writeError(w, r, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
