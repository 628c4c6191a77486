package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
)

const maxBodySize = 1 << 20

var errBadRequest = errors.New("malformed request body")

// envelope : même forme que l'API backend, le front affiche message dans un toast.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// publicError est implémentée par les erreurs qui portent leur propre statut (backend).
type publicError interface {
	HTTPStatus() int
	PublicMessage() string
}

var badRequestErrors = []error{
	errBadRequest,
	domain.ErrInvalidEmail,
	domain.ErrInvalidName,
	domain.ErrPasswordRequired,
	domain.ErrPasswordTooShort,
	domain.ErrPasswordMismatch,
	domain.ErrSelfFollow,
	domain.ErrSelfBlock,
	domain.ErrInvalidStatus,
	domain.ErrInvalidTitle,
	domain.ErrInvalidCookingTime,
	domain.ErrInvalidRating,
	domain.ErrInvalidVote,
	domain.ErrEmptyComment,
	domain.ErrCommentTooLong,
	domain.ErrSelfReport,
	domain.ErrInvalidPlan,
	domain.ErrInvalidImage,
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

// errorStatus traduit une erreur en (statut, message public).
func errorStatus(err error) (int, string) {
	// Erreurs backend : statut et message d'origine
	var pe publicError
	if errors.As(err, &pe) {
		return pe.HTTPStatus(), pe.PublicMessage()
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error()
		}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, domain.ErrUnauthenticated.Error()
	case errors.Is(err, domain.ErrBlocked):
		return http.StatusForbidden, domain.ErrBlocked.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, domain.ErrUserNotFound.Error()
	case errors.Is(err, domain.ErrRecipeNotFound):
		return http.StatusNotFound, domain.ErrRecipeNotFound.Error()
	case errors.Is(err, domain.ErrAlreadyPremium):
		return http.StatusConflict, domain.ErrAlreadyPremium.Error()
	case errors.Is(err, domain.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, domain.ErrImageTooLarge.Error()
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadGateway, domain.ErrInvalidToken.Error()
	}
	return http.StatusInternalServerError, "Something went wrong, please try again"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= 500 {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		slog.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: msg})
}

// decodeJSON lit un corps JSON borné ; un corps vide est accepté si allowEmpty.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	err := json.NewDecoder(body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	default:
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
}
