package backend

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
)

// Les DTO reflètent le JSON du backend ; Validate est appelé avant toute conversion.

type tokenDTO struct {
	Token string `json:"token"`
}

func (d *tokenDTO) Validate() error {
	if strings.TrimSpace(d.Token) == "" {
		return errors.New("token is empty")
	}
	return nil
}

type urlDTO struct {
	URL string `json:"url"`
}

func (d *urlDTO) Validate() error {
	if !strings.HasPrefix(d.URL, "http://") && !strings.HasPrefix(d.URL, "https://") {
		return fmt.Errorf("url %q is not absolute", d.URL)
	}
	return nil
}

type edgeDTO struct {
	ID             string `json:"id"`
	MongoID        string `json:"_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
}

func (d edgeDTO) id() string { return firstNonEmpty(d.ID, d.MongoID) }

type userDTO struct {
	ID             string    `json:"id"`
	MongoID        string    `json:"_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	DisplayPicture string    `json:"displayPicture"`
	Followers      []edgeDTO `json:"followers"`
	Following      []edgeDTO `json:"following"`
	IsPremium      bool      `json:"isPremium"`
	FoodHabit      string    `json:"foodHabit"`
	City           string    `json:"city"`
	Country        string    `json:"country"`
	Bio            string    `json:"bio"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (d *userDTO) Validate() error {
	if d.id() == "" {
		return errors.New("user without id")
	}
	if r := strings.ToUpper(d.Role); r != "" && r != string(domain.RoleAdmin) && r != string(domain.RoleUser) {
		return fmt.Errorf("user %s: unknown role %q", d.id(), d.Role)
	}
	if s := domain.Status(strings.ToUpper(d.Status)); s != "" && !s.Valid() {
		return fmt.Errorf("user %s: unknown status %q", d.id(), d.Status)
	}
	for _, e := range slices.Concat(d.Followers, d.Following) {
		if e.id() == "" {
			return fmt.Errorf("user %s: follow edge without id", d.id())
		}
	}
	return nil
}

func (d *userDTO) id() string { return firstNonEmpty(d.ID, d.MongoID) }

func (d *userDTO) toDomain() domain.User {
	role := domain.Role(strings.ToUpper(d.Role))
	if role == "" {
		role = domain.RoleUser
	}
	status := domain.Status(strings.ToUpper(d.Status))
	if status == "" {
		status = domain.StatusActive
	}
	return domain.User{
		Identity: domain.Identity{
			ID:             d.id(),
			Name:           d.Name,
			Role:           role,
			Status:         status,
			DisplayPicture: d.DisplayPicture,
			Email:          d.Email,
			Phone:          d.Phone,
			Followers:      toEdges(d.Followers),
			Following:      toEdges(d.Following),
			IsPremium:      d.IsPremium,
			FoodHabit:      d.FoodHabit,
			City:           d.City,
		},
		Country:   d.Country,
		Bio:       d.Bio,
		CreatedAt: d.CreatedAt,
	}
}

type userList []userDTO

func (l *userList) Validate() error {
	for i := range *l {
		if err := (*l)[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

type voteDTO struct {
	ID       string `json:"id"`
	Upvote   bool   `json:"upvote"`
	Downvote bool   `json:"downvote"`
}

type ratingDTO struct {
	ID     string `json:"id"`
	Rating int    `json:"rating"`
}

type commentDTO struct {
	ID        string    `json:"id"`
	MongoID   string    `json:"_id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type recipeDTO struct {
	ID           string       `json:"id"`
	MongoID      string       `json:"_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Ingredients  []string     `json:"ingredients"`
	Instructions string       `json:"instructions"`
	Image        string       `json:"image"`
	CookingTime  int          `json:"cookingTime"`
	Tags         []string     `json:"tags"`
	Diet         string       `json:"diet"`
	Premium      bool         `json:"premium"`
	ReportCount  int          `json:"reportCount"`
	AuthorID     string       `json:"authorId"`
	UserID       string       `json:"userId"`
	Votes        []voteDTO    `json:"votes"`
	Ratings      []ratingDTO  `json:"ratings"`
	Comments     []commentDTO `json:"comments"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (d *recipeDTO) id() string { return firstNonEmpty(d.ID, d.MongoID) }

func (d *recipeDTO) Validate() error {
	id := d.id()
	if id == "" {
		return errors.New("recipe without id")
	}
	if firstNonEmpty(d.AuthorID, d.UserID) == "" {
		return fmt.Errorf("recipe %s: missing author", id)
	}
	for _, v := range d.Votes {
		if v.ID == "" {
			return fmt.Errorf("recipe %s: vote without user id", id)
		}
		if v.Upvote && v.Downvote {
			return fmt.Errorf("recipe %s: vote of %s is both up and down", id, v.ID)
		}
	}
	for _, r := range d.Ratings {
		if r.ID == "" {
			return fmt.Errorf("recipe %s: rating without user id", id)
		}
		if err := domain.ValidateRating(r.Rating); err != nil {
			return fmt.Errorf("recipe %s: %w", id, err)
		}
	}
	return nil
}

func (d *recipeDTO) toDomain() domain.Recipe {
	r := domain.Recipe{
		ID:           d.id(),
		Title:        d.Title,
		Description:  d.Description,
		Ingredients:  d.Ingredients,
		Instructions: d.Instructions,
		Image:        d.Image,
		CookingTime:  d.CookingTime,
		Tags:         d.Tags,
		Diet:         d.Diet,
		Premium:      d.Premium,
		ReportCount:  d.ReportCount,
		AuthorID:     firstNonEmpty(d.AuthorID, d.UserID),
		Votes:        make([]domain.Vote, 0, len(d.Votes)),
		Ratings:      make([]domain.Rating, 0, len(d.Ratings)),
		Comments:     make([]domain.Comment, 0, len(d.Comments)),
		CreatedAt:    d.CreatedAt,
	}
	for _, v := range d.Votes {
		r.Votes = append(r.Votes, domain.Vote(v))
	}
	for _, rt := range d.Ratings {
		r.Ratings = append(r.Ratings, domain.Rating(rt))
	}
	for _, c := range d.Comments {
		r.Comments = append(r.Comments, domain.Comment{
			ID:        firstNonEmpty(c.ID, c.MongoID),
			UserID:    c.UserID,
			UserName:  c.UserName,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return r
}

type recipeList []recipeDTO

func (l *recipeList) Validate() error {
	for i := range *l {
		if err := (*l)[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func toEdges(in []edgeDTO) []domain.FollowEdge {
	out := make([]domain.FollowEdge, 0, len(in))
	for _, e := range in {
		out = append(out, domain.FollowEdge{
			ID:             e.id(),
			Name:           e.Name,
			Email:          e.Email,
			ProfilePicture: e.ProfilePicture,
		})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
