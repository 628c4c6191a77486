package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

// SocialService gère profils, follow/unfollow et suggestions.
type SocialService struct {
	users   ports.UserBackend
	recipes ports.RecipeBackend
	cache   *readThrough
	events  ports.EventPublisher
}

func NewSocialService(users ports.UserBackend, recipes ports.RecipeBackend, cache ports.QueryCache, cacheTTL time.Duration, events ports.EventPublisher) *SocialService {
	return &SocialService{
		users:   users,
		recipes: recipes,
		cache:   newReadThrough(cache, cacheTTL),
		events:  events,
	}
}

func (s *SocialService) Profile(ctx context.Context, viewer *domain.Identity, userID string) (*ports.ProfileView, error) {
	// Lectures indépendantes : lancées en parallèle
	var (
		user    *domain.User
		me      *domain.User
		recipes []domain.Recipe
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.user(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		recipes, err = s.recipes.ListRecipes(gctx, ports.RecipeQuery{AuthorIDs: []string{userID}})
		return err
	})
	if viewer != nil && viewer.ID != userID {
		g.Go(func() error {
			var err error
			me, err = s.user(gctx, viewer.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", userID, err)
	}

	view := &ports.ProfileView{
		User:      *user,
		Recipes:   buildViews(viewer, recipes),
		Followers: nonNil(user.Followers),
		Following: nonNil(user.Following),
	}
	if viewer != nil {
		view.IsSelf = viewer.ID == user.ID
	}
	if me != nil {
		view.IsFollowing = me.IsFollowing(user.ID)
	}
	return view, nil
}

// Follow applique la mise à jour optimiste puis confirme auprès du backend.
// En cas d'échec, le profil mis en cache est restauré (rollback).
func (s *SocialService) Follow(ctx context.Context, viewer *domain.Identity, targetID string) (*domain.User, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if targetID == viewer.ID {
		return nil, domain.ErrSelfFollow
	}

	target, err := s.user(ctx, targetID)
	if err != nil {
		return nil, err
	}
	next, err := s.optimistic(ctx, viewer.ID,
		func(u domain.User) domain.User { return u.WithFollowing(target.Edge()) },
		func(ctx context.Context) error { return s.users.Follow(ctx, viewer.ID, targetID) },
	)
	if err != nil {
		return nil, fmt.Errorf("follow %s: %w", targetID, err)
	}

	publish(ctx, s.events, domain.NewEngagementEvent(domain.EventUserFollowed, viewer.ID, targetID, nil))
	return next, nil
}

func (s *SocialService) Unfollow(ctx context.Context, viewer *domain.Identity, targetID string) (*domain.User, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if targetID == viewer.ID {
		return nil, domain.ErrSelfFollow
	}

	next, err := s.optimistic(ctx, viewer.ID,
		func(u domain.User) domain.User { return u.WithoutFollowing(targetID) },
		func(ctx context.Context) error { return s.users.Unfollow(ctx, viewer.ID, targetID) },
	)
	if err != nil {
		return nil, fmt.Errorf("unfollow %s: %w", targetID, err)
	}

	publish(ctx, s.events, domain.NewEngagementEvent(domain.EventUserUnfollowed, viewer.ID, targetID, nil))
	return next, nil
}

// optimistic : 1. snapshot, 2. apply + écriture cache, 3. commit backend, 4. rollback si échec.
func (s *SocialService) optimistic(
	ctx context.Context,
	viewerID string,
	apply func(domain.User) domain.User,
	commit func(context.Context) error,
) (*domain.User, error) {
	prev, err := s.user(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	next := apply(*prev)
	s.cache.store(ctx, userKey(viewerID), &next)

	if err := commit(ctx); err != nil {
		slog.WarnContext(ctx, "optimistic update rolled back", "user_id", viewerID, "error", err)
		s.cache.store(ctx, userKey(viewerID), prev)
		return nil, err
	}

	// Le followee a changé côté backend (followers[]), on ne garde pas sa copie
	for _, e := range diffEdges(prev.Following, next.Following) {
		s.cache.invalidate(ctx, userKey(e))
	}
	s.cache.invalidate(ctx, usersKey)
	return &next, nil
}

func (s *SocialService) Suggestions(ctx context.Context, viewer *domain.Identity) ([]domain.User, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	me, err := s.user(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	all, err := cachedLoad(ctx, s.cache, usersKey, s.users.ListUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	// Les comptes bloqués ne sont jamais proposés
	candidates := make([]domain.User, 0, len(all))
	for _, u := range all {
		if !u.IsBlocked() {
			candidates = append(candidates, u)
		}
	}
	return domain.SuggestFollows(*me, candidates, domain.DefaultSuggestionLimit), nil
}

func (s *SocialService) user(ctx context.Context, id string) (*domain.User, error) {
	return cachedLoad(ctx, s.cache, userKey(id), func(ctx context.Context) (*domain.User, error) {
		return s.users.GetUser(ctx, id)
	})
}

// diffEdges renvoie les IDs présents dans une seule des deux listes.
func diffEdges(a, b []domain.FollowEdge) []string {
	seen := make(map[string]int, len(a)+len(b))
	for _, e := range a {
		seen[e.ID]++
	}
	for _, e := range b {
		seen[e.ID]--
	}
	var out []string
	for id, n := range seen {
		if n != 0 {
			out = append(out, id)
		}
	}
	return out
}

func nonNil(edges []domain.FollowEdge) []domain.FollowEdge {
	if edges == nil {
		return []domain.FollowEdge{}
	}
	return edges
}
