package ports

import (
	"context"
	"io"
	"time"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
)

// --- SÉCURITÉ (TOKEN) ---

// IdentityResolver décode un token de session. nil = non connecté, jamais d'erreur.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) *domain.Identity
	// ExpiresAt renvoie l'expiration lue dans le token (zéro si absente ou illisible).
	ExpiresAt(token string) time.Time
}

// TokenRevoker tient la liste des tokens invalidés par un logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, until time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// --- BACKEND REST (source de vérité) ---

type AuthBackend interface {
	Login(ctx context.Context, email, password string) (token string, err error)
	Register(ctx context.Context, cmd RegisterCmd) (token string, err error)
}

type UserBackend interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	Follow(ctx context.Context, actorID, targetID string) error
	Unfollow(ctx context.Context, actorID, targetID string) error
	UpdateUserStatus(ctx context.Context, id string, status domain.Status) (*domain.User, error)
}

type RecipeBackend interface {
	ListRecipes(ctx context.Context, q RecipeQuery) ([]domain.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*domain.Recipe, error)
	CreateRecipe(ctx context.Context, authorID string, in domain.RecipeInput) (*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, in domain.RecipeInput) (*domain.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
	Vote(ctx context.Context, recipeID string, vote domain.Vote) (*domain.Recipe, error)
	Rate(ctx context.Context, recipeID string, rating domain.Rating) (*domain.Recipe, error)
	AddComment(ctx context.Context, recipeID string, c domain.Comment) (*domain.Recipe, error)
	ReportRecipe(ctx context.Context, recipeID string) (*domain.Recipe, error)
}

type MediaBackend interface {
	UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (url string, err error)
	InitiatePayment(ctx context.Context, userID, plan string) (redirectURL string, err error)
}

// Backend regroupe tout ce que le serveur délègue à l'API externe.
type Backend interface {
	AuthBackend
	UserBackend
	RecipeBackend
	MediaBackend
}

// --- CACHE ---

// QueryCache stocke des documents JSON avec TTL. Un miss renvoie (nil, false, nil).
type QueryCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// --- MESSAGERIE (BROKER) ---

// EventPublisher notifie les autres services (notifications, stats) des interactions.
type EventPublisher interface {
	PublishEngagement(ctx context.Context, event domain.EngagementEvent) error
}

// --- GÉOCODAGE ---

type Geocoder interface {
	ReverseCity(ctx context.Context, lat, lng float64) (string, error)
}
