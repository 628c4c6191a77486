package domain

import (
	"net/url"
	"strings"
)

const (
	PathHome           = "/"
	PathLogin          = "/login"
	PathSignup         = "/signup"
	PathAdminDashboard = "/admin-dashboard"
	PathAdminUser      = "/admin-user"
	PathAdminRecipe    = "/admin-recipe"
)

// DefaultAdminPaths est l'ensemble des pages réservées aux administrateurs.
var DefaultAdminPaths = []string{PathAdminDashboard, PathAdminUser, PathAdminRecipe}

// prefixes de pages qu'un admin peut consulter en dehors du panel
var adminBrowsablePrefixes = []string{"/profile", "/recipe"}

// Decision est le résultat du guard pour une navigation.
type Decision struct {
	Allow    bool
	Location string // cible de la redirection quand Allow est faux
}

func allow() Decision { return Decision{Allow: true} }

func redirect(loc string) Decision { return Decision{Location: loc} }

// Guard décide pour chaque navigation : autoriser ou rediriger.
// Aucun état n'est conservé entre deux appels.
type Guard struct {
	adminPaths map[string]struct{}
}

// NewGuard construit le guard. Une liste vide retombe sur DefaultAdminPaths.
func NewGuard(adminPaths []string) *Guard {
	if len(adminPaths) == 0 {
		adminPaths = DefaultAdminPaths
	}
	set := make(map[string]struct{}, len(adminPaths))
	for _, p := range adminPaths {
		set[normalizePath(p)] = struct{}{}
	}
	return &Guard{adminPaths: set}
}

// Decide applique la table de décision dans l'ordre de priorité :
// bloqué, anonyme, admin, user.
func (g *Guard) Decide(id *Identity, path string) Decision {
	path = normalizePath(path)

	// 1. Compte bloqué : terminal, quel que soit le chemin
	if id != nil && id.Status == StatusBlocked {
		return redirect(PathLogin + "?status=blocked")
	}

	// 2. Anonyme
	if id == nil {
		if isAuthPage(path) {
			return allow()
		}
		return redirect(PathLogin + "?redirect=" + escapeRedirect(path))
	}

	// 3. Admin
	if id.Role == RoleAdmin {
		if g.isAdminPath(path) {
			return allow()
		}
		for _, prefix := range adminBrowsablePrefixes {
			if strings.HasPrefix(path, prefix) {
				return allow()
			}
		}
		return redirect(PathAdminDashboard)
	}

	// 4. User (ou rôle inconnu, traité comme user)
	if g.isAdminPath(path) || isAuthPage(path) {
		return redirect(PathHome)
	}
	return allow()
}

func (g *Guard) isAdminPath(path string) bool {
	_, ok := g.adminPaths[path]
	return ok
}

// AdminPaths renvoie l'ensemble configuré (ordre non garanti).
func (g *Guard) AdminPaths() []string {
	out := make([]string, 0, len(g.adminPaths))
	for p := range g.adminPaths {
		out = append(out, p)
	}
	return out
}

func isAuthPage(path string) bool {
	return path == PathLogin || path == PathSignup
}

func normalizePath(p string) string {
	if p == "" {
		return PathHome
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = PathHome
		}
	}
	return p
}

// escapeRedirect encode le chemin pour la query string en gardant les "/" lisibles.
func escapeRedirect(path string) string {
	return strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}
