package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

// --- AUTH ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirmPassword"`
	FoodHabit       string   `json:"foodHabit"`
	City            string   `json:"city"`
	Country         string   `json:"country"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

type sessionResponse struct {
	User     *domain.Identity `json:"user"`
	Redirect string           `json:"redirect"`
}

// landing : page d'arrivée après connexion (admin -> dashboard).
func landing(id *domain.Identity) string {
	if id.IsAdmin() {
		return domain.PathAdminDashboard
	}
	return domain.PathHome
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.sessions.Login(r.Context(), ports.LoginCmd{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, err)
		return
	}

	setSessionCookie(w, s, h.cookieSecure)
	writeJSON(w, http.StatusOK, sessionResponse{User: s.Identity, Redirect: landing(s.Identity)})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.sessions.Signup(r.Context(), ports.SignupCmd{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FoodHabit:       req.FoodHabit,
		City:            req.City,
		Country:         req.Country,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	setSessionCookie(w, s, h.cookieSecure)
	writeJSON(w, http.StatusCreated, sessionResponse{User: s.Identity, Redirect: landing(s.Identity)})
}

// logout : le cookie est effacé même si la révocation échoue.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.Logout(r.Context(), TokenFromContext(r.Context()))
	clearSessionCookie(w, h.cookieSecure)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Redirect: domain.PathLogin})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ViewerFromContext(r.Context()))
}

// --- RECIPES ---

func (h *Handler) createRecipe(w http.ResponseWriter, r *http.Request) {
	var in domain.RecipeInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.recipes.Create(r.Context(), ViewerFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) updateRecipe(w http.ResponseWriter, r *http.Request) {
	var in domain.RecipeInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.recipes.Update(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := h.recipes.Delete(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type voteRequest struct {
	Direction domain.VoteDirection `json:"direction"`
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.recipes.Vote(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"), req.Direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type rateRequest struct {
	Rating int `json:"rating"`
}

func (h *Handler) rate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.recipes.Rate(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"), req.Rating)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *Handler) comment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.recipes.Comment(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	if err := h.recipes.Report(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- SOCIAL ---

func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	u, err := h.social.Follow(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) unfollow(w http.ResponseWriter, r *http.Request) {
	u, err := h.social.Unfollow(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	users, err := h.social.Suggestions(r.Context(), ViewerFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// --- MEDIA & PREMIUM ---

type uploadResponse struct {
	URL string `json:"url"`
}

// uploadImage : multipart, champ "image". Le corps est borné un peu au-dessus de la limite
// pour laisser la place aux en-têtes multipart.
func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxImageSize+maxBodySize)
	if err := r.ParseMultipartForm(maxBodySize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, domain.ErrImageTooLarge)
			return
		}
		writeError(w, r, errBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, domain.ErrInvalidImage)
		return
	}
	defer file.Close()

	url, err := h.premium.UploadImage(r.Context(), ViewerFromContext(r.Context()), ports.UploadCmd{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

// checkout redirige (303) vers la page de paiement ; un client JSON reçoit l'URL.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(w, r, &req, true); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		req.Plan = r.FormValue("plan")
	}

	url, err := h.premium.Checkout(r.Context(), ViewerFromContext(r.Context()), req.Plan)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "💳 checkout started", "user", ViewerFromContext(r.Context()).ID, "plan", req.Plan)
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, uploadResponse{URL: url})
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// --- ADMIN ---

type statusRequest struct {
	Status domain.Status `json:"status"`
}

func (h *Handler) setUserStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.admin.SetUserStatus(r.Context(), ViewerFromContext(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) adminDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteRecipe(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
