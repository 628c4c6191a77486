package domain

import (
	"errors"
	"slices"
	"time"
)

// --- ERREURS DU DOMAINE ---
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("permission denied")
	ErrBlocked          = errors.New("account is blocked")
	ErrUserNotFound     = errors.New("user not found")
	ErrRecipeNotFound   = errors.New("recipe not found")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInvalidName      = errors.New("name is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrSelfBlock        = errors.New("cannot change your own status")
	ErrInvalidStatus    = errors.New("invalid account status")
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusBlocked
}

// FollowEdge est un lien dirigé, dupliqué côté follower et côté followee par le backend.
type FollowEdge struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Identity est l'utilisateur courant tel que décodé depuis le token de session.
// Le backend reste la source de vérité : on ne la modifie jamais localement.
type Identity struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Role           Role         `json:"role"`
	Status         Status       `json:"status"`
	DisplayPicture string       `json:"displayPicture,omitempty"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone,omitempty"`
	Followers      []FollowEdge `json:"followers"`
	Following      []FollowEdge `json:"following"`
	IsPremium      bool         `json:"isPremium,omitempty"`
	FoodHabit      string       `json:"foodHabit,omitempty"`
	City           string       `json:"city,omitempty"`
}

func (i *Identity) IsAdmin() bool   { return i != nil && i.Role == RoleAdmin }
func (i *Identity) IsBlocked() bool { return i != nil && i.Status == StatusBlocked }

// IsFollowing indique si l'identité suit déjà targetID.
func (i *Identity) IsFollowing(targetID string) bool {
	if i == nil {
		return false
	}
	return slices.ContainsFunc(i.Following, func(e FollowEdge) bool { return e.ID == targetID })
}

// Edge projette l'identité en FollowEdge (pour les mises à jour optimistes).
func (i *Identity) Edge() FollowEdge {
	return FollowEdge{ID: i.ID, Name: i.Name, Email: i.Email, ProfilePicture: i.DisplayPicture}
}

// User est le profil complet renvoyé par /users/:id.
type User struct {
	Identity
	Country   string    `json:"country,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// WithFollowing renvoie une copie du profil avec l'edge ajouté (idempotent).
func (u User) WithFollowing(edge FollowEdge) User {
	if u.IsFollowing(edge.ID) {
		return u
	}
	u.Following = append(slices.Clone(u.Following), edge)
	return u
}

// WithoutFollowing renvoie une copie du profil sans l'edge vers targetID.
func (u User) WithoutFollowing(targetID string) User {
	u.Following = slices.DeleteFunc(slices.Clone(u.Following), func(e FollowEdge) bool { return e.ID == targetID })
	return u
}
