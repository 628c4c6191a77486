package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrInvalidTitle       = errors.New("title is required")
	ErrInvalidCookingTime = errors.New("cooking time must be positive")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrInvalidVote        = errors.New("vote direction must be up or down")
	ErrEmptyComment       = errors.New("comment cannot be empty")
	ErrCommentTooLong     = errors.New("comment is too long")
	ErrSelfReport         = errors.New("cannot report your own recipe")
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 1000
)

// Vote : un par (user, recette), unique par ID dans la collection de la recette.
type Vote struct {
	ID       string `json:"id"`
	Upvote   bool   `json:"upvote"`
	Downvote bool   `json:"downvote"`
}

type Rating struct {
	ID     string `json:"id"`
	Rating int    `json:"rating"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Recipe struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"` // HTML (éditeur rich text)
	Ingredients  []string  `json:"ingredients"`
	Instructions string    `json:"instructions"`
	Image        string    `json:"image,omitempty"`
	CookingTime  int       `json:"cookingTime"` // minutes
	Tags         []string  `json:"tags"`
	Diet         string    `json:"diet,omitempty"`
	Premium      bool      `json:"premium"`
	ReportCount  int       `json:"reportCount"`
	AuthorID     string    `json:"authorId"`
	Votes        []Vote    `json:"votes"`
	Ratings      []Rating  `json:"ratings"`
	Comments     []Comment `json:"comments"`
	CreatedAt    time.Time `json:"createdAt"`
}

// VoteOf renvoie le vote de userID, s'il existe.
func (r *Recipe) VoteOf(userID string) *Vote {
	for i := range r.Votes {
		if r.Votes[i].ID == userID {
			return &r.Votes[i]
		}
	}
	return nil
}

// RecipeInput est le contenu du formulaire de création / édition.
type RecipeInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	Image        string   `json:"image,omitempty"`
	CookingTime  int      `json:"cookingTime"`
	Tags         []string `json:"tags"`
	Diet         string   `json:"diet,omitempty"`
	Premium      bool     `json:"premium"`
}

// Normalize nettoie les champs texte et valide les invariants du formulaire.
func (in *RecipeInput) Normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrInvalidTitle
	}
	if in.CookingTime < 0 {
		return ErrInvalidCookingTime
	}
	in.Ingredients = compact(in.Ingredients)
	in.Tags = compact(in.Tags)
	in.Diet = strings.TrimSpace(in.Diet)
	return nil
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// NormalizeComment retire les espaces et vérifie les bornes.
func NormalizeComment(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyComment
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return "", ErrCommentTooLong
	}
	return text, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
