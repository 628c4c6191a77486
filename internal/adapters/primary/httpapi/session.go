package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

const SessionCookie = "token"

// Clé privée pour le contexte (évite les collisions)
type contextKey struct{ name string }

var (
	viewerCtxKey = &contextKey{"viewer"}
	tokenCtxKey  = &contextKey{"token"}
)

// TokenBinder propage le token vers les appels sortants (ex: backend.WithToken).
type TokenBinder func(ctx context.Context, token string) context.Context

// Session résout l'identité une seule fois par requête et la place dans le contexte.
// Un token absent ou invalide donne un viewer nil, jamais une erreur. Un token qui ne
// résout plus n'est ni propagé au backend ni conservé en cookie.
func Session(sessions ports.SessionService, bind TokenBinder, cookieSecure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			viewer := sessions.Current(ctx, token)
			if viewer == nil {
				if fromCookie {
					clearSessionCookie(w, cookieSecure)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = context.WithValue(ctx, viewerCtxKey, viewer)
			ctx = context.WithValue(ctx, tokenCtxKey, token)
			if bind != nil {
				ctx = bind(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ViewerFromContext renvoie l'utilisateur courant (nil = non connecté).
func ViewerFromContext(ctx context.Context) *domain.Identity {
	v, _ := ctx.Value(viewerCtxKey).(*domain.Identity)
	return v
}

func TokenFromContext(ctx context.Context) string {
	raw, _ := ctx.Value(tokenCtxKey).(string)
	return raw
}

// Cookie d'abord (navigateur), puis header Bearer (clients API)
func tokenFromRequest(r *http.Request) (token string, fromCookie bool) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), false
	}
	return "", false
}

func setSessionCookie(w http.ResponseWriter, s *ports.Session, secure bool) {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !s.ExpiresAt.IsZero() {
		c.Expires = s.ExpiresAt
		c.MaxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	http.SetCookie(w, c)
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
