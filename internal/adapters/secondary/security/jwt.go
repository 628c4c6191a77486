package security

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
)

var errMissingSubject = errors.New("token has no user id")

// IdentityClaims reprend la forme du token émis par le backend.
// L'ID peut arriver sous "id", "_id" ou "sub" selon la version de l'API.
type IdentityClaims struct {
	UserID         string              `json:"id,omitempty"`
	LegacyID       string              `json:"_id,omitempty"`
	Name           string              `json:"name"`
	Role           string              `json:"role"`
	Status         string              `json:"status"`
	DisplayPicture string              `json:"displayPicture,omitempty"`
	Email          string              `json:"email"`
	Phone          string              `json:"phone,omitempty"`
	Followers      []domain.FollowEdge `json:"followers"`
	Following      []domain.FollowEdge `json:"following"`
	IsPremium      bool                `json:"isPremium,omitempty"`
	FoodHabit      string              `json:"foodHabit,omitempty"`
	City           string              `json:"city,omitempty"`
	jwt.RegisteredClaims
}

func (c *IdentityClaims) id() string {
	switch {
	case c.UserID != "":
		return c.UserID
	case c.LegacyID != "":
		return c.LegacyID
	default:
		return c.Subject
	}
}

func (c *IdentityClaims) identity() *domain.Identity {
	role := domain.Role(strings.ToUpper(c.Role))
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	status := domain.Status(strings.ToUpper(c.Status))
	if !status.Valid() {
		status = domain.StatusActive
	}
	return &domain.Identity{
		ID:             c.id(),
		Name:           c.Name,
		Role:           role,
		Status:         status,
		DisplayPicture: c.DisplayPicture,
		Email:          c.Email,
		Phone:          c.Phone,
		Followers:      c.Followers,
		Following:      c.Following,
		IsPremium:      c.IsPremium,
		FoodHabit:      c.FoodHabit,
		City:           c.City,
	}
}

// Resolver décode le token de session en Identity.
// Sans clé publique, la signature n'est pas vérifiée : le backend reste la barrière de sécurité.
type Resolver struct {
	publicKey *rsa.PublicKey
	parser    *jwt.Parser
	validator *jwt.Validator
}

func NewResolver(publicKeyPEM []byte) (*Resolver, error) {
	r := &Resolver{
		parser:    jwt.NewParser(),
		validator: jwt.NewValidator(jwt.WithLeeway(5 * time.Second)),
	}
	if len(publicKeyPEM) == 0 {
		return r, nil
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	r.publicKey = pubKey
	return r, nil
}

// Verifies indique si les signatures sont contrôlées.
func (r *Resolver) Verifies() bool { return r.publicKey != nil }

// Resolve renvoie nil pour tout token absent, illisible, expiré ou mal signé.
func (r *Resolver) Resolve(ctx context.Context, token string) *domain.Identity {
	if token == "" {
		return nil
	}
	claims, err := r.parse(token)
	if err != nil {
		slog.DebugContext(ctx, "session token rejected", "error", err)
		return nil
	}
	return claims.identity()
}

func (r *Resolver) parse(token string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	if r.publicKey != nil {
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			// RS256 uniquement : refuse "none" et HS256
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return r.publicKey, nil
		}, jwt.WithLeeway(5*time.Second))
		if err != nil {
			return nil, err
		}
	} else {
		if _, _, err := r.parser.ParseUnverified(token, claims); err != nil {
			return nil, err
		}
		if err := r.validator.Validate(claims); err != nil {
			return nil, err
		}
	}
	if claims.id() == "" {
		return nil, errMissingSubject
	}
	return claims, nil
}

// ExpiresAt lit "exp" sans vérifier le token (zéro si absent).
func (r *Resolver) ExpiresAt(token string) time.Time {
	claims := &IdentityClaims{}
	if _, _, err := r.parser.ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Sign émet un token HS256 avec la même forme de claims que le backend.
func Sign(id *domain.Identity, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := IdentityClaims{
		UserID:         id.ID,
		Name:           id.Name,
		Role:           string(id.Role),
		Status:         string(id.Status),
		DisplayPicture: id.DisplayPicture,
		Email:          id.Email,
		Phone:          id.Phone,
		Followers:      id.Followers,
		Following:      id.Following,
		IsPremium:      id.IsPremium,
		FoodHabit:      id.FoodHabit,
		City:           id.City,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}
