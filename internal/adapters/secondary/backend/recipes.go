package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

type createRecipeBody struct {
	domain.RecipeInput
	AuthorID string `json:"authorId"`
}

func recipePath(id string, rest ...string) string {
	parts := append([]string{"/recipes", url.PathEscape(id)}, rest...)
	return strings.Join(parts, "/")
}

func (c *Client) ListRecipes(ctx context.Context, q ports.RecipeQuery) ([]domain.Recipe, error) {
	params := url.Values{}
	if len(q.AuthorIDs) > 0 {
		params.Set("authors", strings.Join(q.AuthorIDs, ","))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Tag != "" {
		params.Set("tag", q.Tag)
	}
	path := "/recipes"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out recipeList
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	recipes := make([]domain.Recipe, 0, len(out))
	for i := range out {
		recipes = append(recipes, out[i].toDomain())
	}
	return recipes, nil
}

func (c *Client) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	return c.recipeCall(ctx, http.MethodGet, recipePath(id), nil)
}

func (c *Client) CreateRecipe(ctx context.Context, authorID string, in domain.RecipeInput) (*domain.Recipe, error) {
	return c.recipeCall(ctx, http.MethodPost, "/recipes", createRecipeBody{RecipeInput: in, AuthorID: authorID})
}

func (c *Client) UpdateRecipe(ctx context.Context, id string, in domain.RecipeInput) (*domain.Recipe, error) {
	return c.recipeCall(ctx, http.MethodPut, recipePath(id), in)
}

func (c *Client) DeleteRecipe(ctx context.Context, id string) error {
	return notFound(c.doJSON(ctx, http.MethodDelete, recipePath(id), nil, nil), domain.ErrRecipeNotFound)
}

func (c *Client) Vote(ctx context.Context, recipeID string, vote domain.Vote) (*domain.Recipe, error) {
	body := map[string]bool{"upvote": vote.Upvote, "downvote": vote.Downvote}
	return c.recipeCall(ctx, http.MethodPut, recipePath(recipeID, "votes", url.PathEscape(vote.ID)), body)
}

func (c *Client) Rate(ctx context.Context, recipeID string, rating domain.Rating) (*domain.Recipe, error) {
	body := map[string]int{"rating": rating.Rating}
	return c.recipeCall(ctx, http.MethodPut, recipePath(recipeID, "ratings", url.PathEscape(rating.ID)), body)
}

func (c *Client) AddComment(ctx context.Context, recipeID string, cm domain.Comment) (*domain.Recipe, error) {
	body := map[string]string{"userId": cm.UserID, "userName": cm.UserName, "text": cm.Text}
	return c.recipeCall(ctx, http.MethodPost, recipePath(recipeID, "comments"), body)
}

func (c *Client) ReportRecipe(ctx context.Context, recipeID string) (*domain.Recipe, error) {
	return c.recipeCall(ctx, http.MethodPatch, recipePath(recipeID, "report"), nil)
}

// recipeCall : tous les endpoints de mutation renvoient la recette à jour.
func (c *Client) recipeCall(ctx context.Context, method, path string, body any) (*domain.Recipe, error) {
	var out recipeDTO
	if err := c.doJSON(ctx, method, path, body, &out); err != nil {
		return nil, notFound(err, domain.ErrRecipeNotFound)
	}
	r := out.toDomain()
	return &r, nil
}
