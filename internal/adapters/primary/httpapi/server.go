package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

// Services regroupe les ports primaires consommés par l'adapter HTTP.
type Services struct {
	Sessions ports.SessionService
	Recipes  ports.RecipeService
	Social   ports.SocialService
	Admin    ports.AdminService
	Premium  ports.PremiumService
}

type Options struct {
	AllowedOrigins []string
	CookieSecure   bool
	Guard          *domain.Guard
	TokenBinder    TokenBinder
}

// Handler porte les handlers pages et API.
type Handler struct {
	sessions     ports.SessionService
	recipes      ports.RecipeService
	social       ports.SocialService
	admin        ports.AdminService
	premium      ports.PremiumService
	cookieSecure bool
}

func NewHandler(svc Services, cookieSecure bool) *Handler {
	return &Handler{
		sessions:     svc.Sessions,
		recipes:      svc.Recipes,
		social:       svc.Social,
		admin:        svc.Admin,
		premium:      svc.Premium,
		cookieSecure: cookieSecure,
	}
}

// NewRouter assemble la chaîne : otel -> cors -> chi (request id, recover, session) -> guard/pages ou API.
func NewRouter(svc Services, opts Options) http.Handler {
	h := NewHandler(svc, opts.CookieSecure)
	guard := opts.Guard
	if guard == nil {
		guard = domain.NewGuard(nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(Session(svc.Sessions, opts.TokenBinder, opts.CookieSecure))
	// Toute navigation hors API passe par le guard, route connue ou non
	r.Use(middleware.Maybe(PageGuard(guard, opts.CookieSecure), isNavigation))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	// A. Pages
	r.Group(func(r chi.Router) {
		r.Get(domain.PathHome, h.home)
		r.Get(domain.PathLogin, h.authPage)
		r.Get(domain.PathSignup, h.authPage)
		r.Get("/profile/{id}", h.profilePage)
		r.Get("/recipe/new", h.newRecipePage)
		r.Get("/recipe/{id}", h.recipePage)
		r.Get("/premium", h.premiumPage)

		r.Group(func(r chi.Router) {
			r.Use(RequireViewer, RequireAdmin)
			r.Get(domain.PathAdminDashboard, h.adminDashboard)
			r.Get(domain.PathAdminUser, h.adminUsers)
			r.Get(domain.PathAdminRecipe, h.adminRecipes)
		})
	})

	// B. API JSON
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.login)
		r.Post("/auth/signup", h.signup)
		r.Post("/auth/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(RequireViewer)

			r.Get("/me", h.me)

			r.Post("/recipes", h.createRecipe)
			r.Put("/recipes/{id}", h.updateRecipe)
			r.Delete("/recipes/{id}", h.deleteRecipe)
			r.Post("/recipes/{id}/vote", h.vote)
			r.Post("/recipes/{id}/rating", h.rate)
			r.Post("/recipes/{id}/comments", h.comment)
			r.Post("/recipes/{id}/report", h.report)

			r.Get("/users/suggestions", h.suggestions)
			r.Post("/users/{id}/follow", h.follow)
			r.Delete("/users/{id}/follow", h.unfollow)

			r.Post("/images", h.uploadImage)
			r.Post("/premium/checkout", h.checkout)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Patch("/users/{id}/status", h.setUserStatus)
				r.Delete("/recipes/{id}", h.adminDeleteRecipe)
			})
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "baggage", "traceparent"},
		AllowCredentials: true,
	})

	return otelhttp.NewHandler(c.Handler(r), "cheffy-web", otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
		return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
	}))
}

func isNavigation(r *http.Request) bool {
	p := r.URL.Path
	switch {
	case p == "/healthz", p == "/api", strings.HasPrefix(p, "/api/"):
		return false
	default:
		return true
	}
}
