package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

var _ ports.Backend = (*Client)(nil)

// --- AUTH ---

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenDTO
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) Register(ctx context.Context, cmd ports.RegisterCmd) (string, error) {
	var out tokenDTO
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", cmd, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// --- USERS ---

func (c *Client) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var out userDTO
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	u := out.toDomain()
	return &u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out userList
	if err := c.doJSON(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(out))
	for i := range out {
		users = append(users, out[i].toDomain())
	}
	return users, nil
}

func (c *Client) Follow(ctx context.Context, actorID, targetID string) error {
	path := "/users/" + url.PathEscape(actorID) + "/follow/" + url.PathEscape(targetID)
	return notFound(c.doJSON(ctx, http.MethodPost, path, nil, nil), domain.ErrUserNotFound)
}

func (c *Client) Unfollow(ctx context.Context, actorID, targetID string) error {
	path := "/users/users/" + url.PathEscape(actorID) + "/unfollowed"
	body := map[string]string{"unfollowId": targetID}
	return notFound(c.doJSON(ctx, http.MethodPatch, path, body, nil), domain.ErrUserNotFound)
}

func (c *Client) UpdateUserStatus(ctx context.Context, id string, status domain.Status) (*domain.User, error) {
	var out userDTO
	body := map[string]domain.Status{"status": status}
	if err := c.doJSON(ctx, http.MethodPatch, "/users/"+url.PathEscape(id)+"/status", body, &out); err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	u := out.toDomain()
	return &u, nil
}
