package ports

import (
	"context"
	"io"
	"time"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
)

// --- INPUTS (Command Pattern) ---

type LoginCmd struct {
	Email    string
	Password string
}

type SignupCmd struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	FoodHabit       string
	City            string
	Country         string
	// Coordonnées optionnelles : si présentes et City vide, on géocode
	Latitude  *float64
	Longitude *float64
}

// RegisterCmd est ce qui part réellement vers le backend (après validation).
type RegisterCmd struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Password  string `json:"password"`
	FoodHabit string `json:"foodHabit,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
}

type FeedTab string

const (
	FeedAll       FeedTab = "all"
	FeedFollowing FeedTab = "following"
)

type RecipeQuery struct {
	AuthorIDs []string
	Search    string
	Tag       string
}

type UploadCmd struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// --- OUTPUTS ---

type Session struct {
	Identity  *domain.Identity
	Token     string
	ExpiresAt time.Time
}

// RecipeView est ce que la page recette affiche (agrégats déjà calculés).
type RecipeView struct {
	Recipe        domain.Recipe `json:"recipe"`
	Upvotes       int           `json:"upvotes"`
	Downvotes     int           `json:"downvotes"`
	AverageRating float64       `json:"averageRating"`
	RatingCount   int           `json:"ratingCount"`
	ViewerVote    *domain.Vote  `json:"viewerVote,omitempty"`
	ViewerRating  int           `json:"viewerRating,omitempty"`
	Locked        bool          `json:"locked"` // recette premium masquée
	CanEdit       bool          `json:"canEdit"`
}

type ProfileView struct {
	User        domain.User         `json:"user"`
	Recipes     []RecipeView        `json:"recipes"`
	IsFollowing bool                `json:"isFollowing"`
	IsSelf      bool                `json:"isSelf"`
	Followers   []domain.FollowEdge `json:"followers"`
	Following   []domain.FollowEdge `json:"following"`
}

type DashboardStats struct {
	Users           int `json:"users"`
	BlockedUsers    int `json:"blockedUsers"`
	Recipes         int `json:"recipes"`
	ReportedRecipes int `json:"reportedRecipes"`
	PremiumRecipes  int `json:"premiumRecipes"`
}

// --- PORTS PRIMAIRES (Driving) ---

type SessionService interface {
	Login(ctx context.Context, cmd LoginCmd) (*Session, error)
	Signup(ctx context.Context, cmd SignupCmd) (*Session, error)
	Logout(ctx context.Context, token string) error
	Current(ctx context.Context, token string) *domain.Identity
}

type RecipeService interface {
	Feed(ctx context.Context, viewer *domain.Identity, tab FeedTab, q RecipeQuery) ([]RecipeView, error)
	Get(ctx context.Context, viewer *domain.Identity, id string) (*RecipeView, error)
	Create(ctx context.Context, viewer *domain.Identity, in domain.RecipeInput) (*domain.Recipe, error)
	Update(ctx context.Context, viewer *domain.Identity, id string, in domain.RecipeInput) (*domain.Recipe, error)
	Delete(ctx context.Context, viewer *domain.Identity, id string) error
	Vote(ctx context.Context, viewer *domain.Identity, id string, dir domain.VoteDirection) (*RecipeView, error)
	Rate(ctx context.Context, viewer *domain.Identity, id string, rating int) (*RecipeView, error)
	Comment(ctx context.Context, viewer *domain.Identity, id, text string) (*RecipeView, error)
	Report(ctx context.Context, viewer *domain.Identity, id string) error
}

type SocialService interface {
	Profile(ctx context.Context, viewer *domain.Identity, userID string) (*ProfileView, error)
	Follow(ctx context.Context, viewer *domain.Identity, targetID string) (*domain.User, error)
	Unfollow(ctx context.Context, viewer *domain.Identity, targetID string) (*domain.User, error)
	Suggestions(ctx context.Context, viewer *domain.Identity) ([]domain.User, error)
}

type AdminService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	Users(ctx context.Context) ([]domain.User, error)
	SetUserStatus(ctx context.Context, admin *domain.Identity, userID string, status domain.Status) (*domain.User, error)
	Recipes(ctx context.Context) ([]domain.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
}

type PremiumService interface {
	Checkout(ctx context.Context, viewer *domain.Identity, plan string) (string, error)
	UploadImage(ctx context.Context, viewer *domain.Identity, cmd UploadCmd) (string, error)
}
