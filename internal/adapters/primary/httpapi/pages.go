package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

// Les pages renvoient le view model JSON que le front rend ; l'accès est déjà filtré par PageGuard.

type homePage struct {
	Tab         ports.FeedTab      `json:"tab"`
	Feed        []ports.RecipeView `json:"feed"`
	Suggestions []domain.User      `json:"suggestions"`
	Viewer      *domain.Identity   `json:"viewer"`
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := ViewerFromContext(ctx)

	tab := ports.FeedTab(r.URL.Query().Get("tab"))
	if tab != ports.FeedFollowing {
		tab = ports.FeedAll
	}
	q := ports.RecipeQuery{Search: r.URL.Query().Get("q"), Tag: r.URL.Query().Get("tag")}

	feed, err := h.recipes.Feed(ctx, viewer, tab, q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page := homePage{Tab: tab, Feed: feed, Suggestions: []domain.User{}, Viewer: viewer}
	if viewer != nil {
		// Les suggestions sont un bonus : la page s'affiche sans elles
		if sugg, err := h.social.Suggestions(ctx, viewer); err != nil {
			slog.WarnContext(ctx, "suggestions unavailable", "error", err)
		} else {
			page.Suggestions = sugg
		}
	}
	writeJSON(w, http.StatusOK, page)
}

type authPage struct {
	Status   string `json:"status,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (h *Handler) authPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, authPage{
		Status:   r.URL.Query().Get("status"),
		Redirect: r.URL.Query().Get("redirect"),
	})
}

func (h *Handler) profilePage(w http.ResponseWriter, r *http.Request) {
	view, err := h.social.Profile(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) recipePage(w http.ResponseWriter, r *http.Request) {
	view, err := h.recipes.Get(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type editorPage struct {
	MaxImageSize  int  `json:"maxImageSize"`
	CanPublishPro bool `json:"canPublishPremium"`
}

func (h *Handler) newRecipePage(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerFromContext(r.Context())
	writeJSON(w, http.StatusOK, editorPage{
		MaxImageSize:  domain.MaxImageSize,
		CanPublishPro: viewer != nil && (viewer.IsPremium || viewer.IsAdmin()),
	})
}

type premiumPage struct {
	IsPremium bool          `json:"isPremium"`
	Plans     []domain.Plan `json:"plans"`
}

func (h *Handler) premiumPage(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerFromContext(r.Context())
	writeJSON(w, http.StatusOK, premiumPage{
		IsPremium: viewer != nil && viewer.IsPremium,
		Plans:     []domain.Plan{domain.PlanMonthly, domain.PlanYearly},
	})
}

// --- ADMIN ---

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.Users(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) adminRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.admin.Recipes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}
