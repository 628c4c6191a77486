package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

const (
	minPasswordLength = 6
	// durée de révocation quand le token n'a pas d'expiration lisible
	fallbackRevocation = 24 * time.Hour
)

// SessionService implémente ports.SessionService.
// Cycle de vie explicite : Login/Signup ouvrent la session, Logout la ferme.
type SessionService struct {
	auth     ports.AuthBackend
	resolver ports.IdentityResolver
	revoker  ports.TokenRevoker
	geocoder ports.Geocoder
}

func NewSessionService(
	auth ports.AuthBackend,
	resolver ports.IdentityResolver,
	revoker ports.TokenRevoker,
	geocoder ports.Geocoder,
) *SessionService {
	return &SessionService{
		auth:     auth,
		resolver: resolver,
		revoker:  revoker,
		geocoder: geocoder,
	}
}

func (s *SessionService) Login(ctx context.Context, cmd ports.LoginCmd) (*ports.Session, error) {
	email, err := normalizeEmail(cmd.Email)
	if err != nil {
		return nil, err
	}
	if cmd.Password == "" {
		return nil, domain.ErrPasswordRequired
	}

	token, err := s.auth.Login(ctx, email, cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.open(ctx, token)
}

func (s *SessionService) Signup(ctx context.Context, cmd ports.SignupCmd) (*ports.Session, error) {
	// 1. Validation du formulaire (avant tout appel réseau)
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	email, err := normalizeEmail(cmd.Email)
	if err != nil {
		return nil, err
	}
	if len(cmd.Password) < minPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}
	if cmd.Password != cmd.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}

	// 2. Ville : géocodage optionnel, jamais bloquant
	city := strings.TrimSpace(cmd.City)
	if city == "" && cmd.Latitude != nil && cmd.Longitude != nil && s.geocoder != nil {
		resolved, err := s.geocoder.ReverseCity(ctx, *cmd.Latitude, *cmd.Longitude)
		if err != nil {
			slog.WarnContext(ctx, "reverse geocoding failed, signing up without city", "error", err)
		} else {
			city = resolved
		}
	}

	token, err := s.auth.Register(ctx, ports.RegisterCmd{
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(cmd.Phone),
		Password:  cmd.Password,
		FoodHabit: strings.TrimSpace(cmd.FoodHabit),
		City:      city,
		Country:   strings.TrimSpace(cmd.Country),
	})
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return s.open(ctx, token)
}

// open résout le token fraîchement émis par le backend.
func (s *SessionService) open(ctx context.Context, token string) (*ports.Session, error) {
	id := s.resolver.Resolve(ctx, token)
	if id == nil {
		return nil, domain.ErrInvalidToken
	}
	if id.IsBlocked() {
		return nil, domain.ErrBlocked
	}
	slog.InfoContext(ctx, "session opened", "user_id", id.ID, "role", id.Role)
	return &ports.Session{
		Identity:  id,
		Token:     token,
		ExpiresAt: s.resolver.ExpiresAt(token),
	}, nil
}

func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" || s.revoker == nil {
		return nil
	}
	until := s.resolver.ExpiresAt(token)
	if until.IsZero() {
		until = time.Now().Add(fallbackRevocation)
	}
	if !until.After(time.Now()) {
		// déjà expiré, rien à révoquer
		return nil
	}
	if err := s.revoker.Revoke(ctx, token, until); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Current résout l'identité d'une requête. Toute erreur dégrade en "non connecté",
// sauf une panne de la liste de révocation qui ne déconnecte personne.
func (s *SessionService) Current(ctx context.Context, token string) *domain.Identity {
	if token == "" {
		return nil
	}
	id := s.resolver.Resolve(ctx, token)
	if id == nil || s.revoker == nil {
		return id
	}
	revoked, err := s.revoker.IsRevoked(ctx, token)
	if err != nil {
		slog.WarnContext(ctx, "revocation check failed", "error", err)
		return id
	}
	if revoked {
		return nil
	}
	return id
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}
