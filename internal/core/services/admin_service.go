package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

// AdminService : modération des comptes et des recettes.
// L'autorisation (rôle ADMIN) est vérifiée en amont par le guard HTTP.
type AdminService struct {
	users   ports.UserBackend
	recipes ports.RecipeBackend
	cache   *readThrough
}

func NewAdminService(users ports.UserBackend, recipes ports.RecipeBackend, cache ports.QueryCache, cacheTTL time.Duration) *AdminService {
	return &AdminService{
		users:   users,
		recipes: recipes,
		cache:   newReadThrough(cache, cacheTTL),
	}
}

func (s *AdminService) Dashboard(ctx context.Context) (*ports.DashboardStats, error) {
	var (
		users   []domain.User
		recipes []domain.Recipe
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.users.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recipes, err = s.recipes.ListRecipes(gctx, ports.RecipeQuery{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	stats := &ports.DashboardStats{Users: len(users), Recipes: len(recipes)}
	for _, u := range users {
		if u.IsBlocked() {
			stats.BlockedUsers++
		}
	}
	for _, r := range recipes {
		if r.ReportCount > 0 {
			stats.ReportedRecipes++
		}
		if r.Premium {
			stats.PremiumRecipes++
		}
	}
	return stats, nil
}

func (s *AdminService) Users(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *AdminService) SetUserStatus(ctx context.Context, admin *domain.Identity, userID string, status domain.Status) (*domain.User, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if admin != nil && admin.ID == userID {
		return nil, domain.ErrSelfBlock
	}

	u, err := s.users.UpdateUserStatus(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("set status of %s: %w", userID, err)
	}
	s.cache.invalidate(ctx, userKey(userID), usersKey)

	slog.InfoContext(ctx, "user status changed", "user_id", userID, "status", status, "by", adminID(admin))
	return u, nil
}

// Recipes renvoie les recettes les plus signalées en premier.
func (s *AdminService) Recipes(ctx context.Context) ([]domain.Recipe, error) {
	recipes, err := s.recipes.ListRecipes(ctx, ports.RecipeQuery{})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(recipes, func(a, b domain.Recipe) int {
		return cmp.Compare(b.ReportCount, a.ReportCount)
	})
	return recipes, nil
}

func (s *AdminService) DeleteRecipe(ctx context.Context, id string) error {
	if err := s.recipes.DeleteRecipe(ctx, id); err != nil {
		return fmt.Errorf("delete recipe %s: %w", id, err)
	}
	s.cache.invalidate(ctx, recipeKey(id))
	return nil
}

func adminID(admin *domain.Identity) string {
	if admin == nil {
		return ""
	}
	return admin.ID
}
