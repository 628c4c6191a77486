package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

// RecipeService implémente ports.RecipeService.
// L'état affiché après une mutation est toujours re-dérivé de la réponse du backend.
type RecipeService struct {
	backend ports.RecipeBackend
	users   ports.UserBackend
	cache   *readThrough
	events  ports.EventPublisher
	policy  *bluemonday.Policy
}

func NewRecipeService(backend ports.RecipeBackend, users ports.UserBackend, cache ports.QueryCache, cacheTTL time.Duration, events ports.EventPublisher) *RecipeService {
	return &RecipeService{
		backend: backend,
		users:   users,
		cache:   newReadThrough(cache, cacheTTL),
		events:  events,
		// La description vient d'un éditeur rich text : on garde le HTML "UGC", pas les scripts
		policy: bluemonday.UGCPolicy(),
	}
}

func (s *RecipeService) Feed(ctx context.Context, viewer *domain.Identity, tab ports.FeedTab, q ports.RecipeQuery) ([]ports.RecipeView, error) {
	if tab == ports.FeedFollowing {
		if err := requireViewer(viewer); err != nil {
			return nil, err
		}
		// Le profil en cache reflète les follow récents, le token peut être en retard
		me, err := cachedLoad(ctx, s.cache, userKey(viewer.ID), func(ctx context.Context) (*domain.User, error) {
			return s.users.GetUser(ctx, viewer.ID)
		})
		if err != nil {
			return nil, err
		}
		if len(me.Following) == 0 {
			return []ports.RecipeView{}, nil
		}
		q.AuthorIDs = make([]string, 0, len(me.Following))
		for _, e := range me.Following {
			q.AuthorIDs = append(q.AuthorIDs, e.ID)
		}
	}

	recipes, err := s.backend.ListRecipes(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return buildViews(viewer, recipes), nil
}

func (s *RecipeService) Get(ctx context.Context, viewer *domain.Identity, id string) (*ports.RecipeView, error) {
	r, err := cachedLoad(ctx, s.cache, recipeKey(id), func(ctx context.Context) (*domain.Recipe, error) {
		return s.backend.GetRecipe(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	v := buildView(viewer, *r)
	return &v, nil
}

func (s *RecipeService) Create(ctx context.Context, viewer *domain.Identity, in domain.RecipeInput) (*domain.Recipe, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if err := s.clean(&in); err != nil {
		return nil, err
	}
	r, err := s.backend.CreateRecipe(ctx, viewer.ID, in)
	if err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	s.cache.store(ctx, recipeKey(r.ID), r)
	return r, nil
}

func (s *RecipeService) Update(ctx context.Context, viewer *domain.Identity, id string, in domain.RecipeInput) (*domain.Recipe, error) {
	if _, err := s.owned(ctx, viewer, id); err != nil {
		return nil, err
	}
	if err := s.clean(&in); err != nil {
		return nil, err
	}
	r, err := s.backend.UpdateRecipe(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update recipe %s: %w", id, err)
	}
	s.cache.store(ctx, recipeKey(id), r)
	return r, nil
}

func (s *RecipeService) Delete(ctx context.Context, viewer *domain.Identity, id string) error {
	if _, err := s.owned(ctx, viewer, id); err != nil {
		return err
	}
	if err := s.backend.DeleteRecipe(ctx, id); err != nil {
		return fmt.Errorf("delete recipe %s: %w", id, err)
	}
	s.cache.invalidate(ctx, recipeKey(id))
	return nil
}

func (s *RecipeService) Vote(ctx context.Context, viewer *domain.Identity, id string, dir domain.VoteDirection) (*ports.RecipeView, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if !dir.Valid() {
		return nil, domain.ErrInvalidVote
	}

	// Lecture fraîche : le toggle dépend du vote actuel
	current, err := s.backend.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	next := domain.NextVote(current.VoteOf(viewer.ID), viewer.ID, dir)

	updated, err := s.backend.Vote(ctx, id, next)
	if err != nil {
		return nil, fmt.Errorf("vote on %s: %w", id, err)
	}
	publish(ctx, s.events, domain.NewEngagementEvent(domain.EventRecipeVoted, viewer.ID, id, map[string]string{
		"upvote":   strconv.FormatBool(next.Upvote),
		"downvote": strconv.FormatBool(next.Downvote),
	}))
	return s.refreshed(ctx, viewer, updated), nil
}

func (s *RecipeService) Rate(ctx context.Context, viewer *domain.Identity, id string, rating int) (*ports.RecipeView, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	if err := domain.ValidateRating(rating); err != nil {
		return nil, err
	}
	updated, err := s.backend.Rate(ctx, id, domain.Rating{ID: viewer.ID, Rating: rating})
	if err != nil {
		return nil, fmt.Errorf("rate %s: %w", id, err)
	}
	publish(ctx, s.events, domain.NewEngagementEvent(domain.EventRecipeRated, viewer.ID, id, map[string]string{
		"rating": strconv.Itoa(rating),
	}))
	return s.refreshed(ctx, viewer, updated), nil
}

func (s *RecipeService) Comment(ctx context.Context, viewer *domain.Identity, id, text string) (*ports.RecipeView, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	text, err := domain.NormalizeComment(text)
	if err != nil {
		return nil, err
	}
	updated, err := s.backend.AddComment(ctx, id, domain.Comment{
		UserID:   viewer.ID,
		UserName: viewer.Name,
		Text:     text,
	})
	if err != nil {
		return nil, fmt.Errorf("comment on %s: %w", id, err)
	}
	publish(ctx, s.events, domain.NewEngagementEvent(domain.EventRecipeCommented, viewer.ID, id, nil))
	return s.refreshed(ctx, viewer, updated), nil
}

func (s *RecipeService) Report(ctx context.Context, viewer *domain.Identity, id string) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	current, err := s.backend.GetRecipe(ctx, id)
	if err != nil {
		return err
	}
	if current.AuthorID == viewer.ID {
		return domain.ErrSelfReport
	}
	if _, err := s.backend.ReportRecipe(ctx, id); err != nil {
		return fmt.Errorf("report %s: %w", id, err)
	}
	s.cache.invalidate(ctx, recipeKey(id))
	publish(ctx, s.events, domain.NewEngagementEvent(domain.EventRecipeReported, viewer.ID, id, nil))
	return nil
}

// owned charge la recette et vérifie que viewer en est l'auteur (ou admin).
func (s *RecipeService) owned(ctx context.Context, viewer *domain.Identity, id string) (*domain.Recipe, error) {
	if err := requireViewer(viewer); err != nil {
		return nil, err
	}
	r, err := s.backend.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.AuthorID != viewer.ID && !viewer.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return r, nil
}

func (s *RecipeService) clean(in *domain.RecipeInput) error {
	if err := in.Normalize(); err != nil {
		return err
	}
	in.Description = s.policy.Sanitize(in.Description)
	return nil
}

func (s *RecipeService) refreshed(ctx context.Context, viewer *domain.Identity, r *domain.Recipe) *ports.RecipeView {
	s.cache.store(ctx, recipeKey(r.ID), r)
	v := buildView(viewer, *r)
	return &v
}

// --- Vues ---

func buildViews(viewer *domain.Identity, recipes []domain.Recipe) []ports.RecipeView {
	views := make([]ports.RecipeView, 0, len(recipes))
	for _, r := range recipes {
		views = append(views, buildView(viewer, r))
	}
	return views
}

func buildView(viewer *domain.Identity, r domain.Recipe) ports.RecipeView {
	up, down := domain.TallyVotes(r.Votes)
	avg, count := domain.AverageRating(r.Ratings)

	v := ports.RecipeView{
		Upvotes:       up,
		Downvotes:     down,
		AverageRating: avg,
		RatingCount:   count,
	}

	if viewer != nil {
		if vote := r.VoteOf(viewer.ID); vote != nil {
			cp := *vote
			v.ViewerVote = &cp
		}
		for _, rt := range r.Ratings {
			if rt.ID == viewer.ID {
				v.ViewerRating = rt.Rating
			}
		}
		v.CanEdit = viewer.ID == r.AuthorID || viewer.IsAdmin()
	}

	if !domain.CanSeePremium(viewer, &r) {
		v.Locked = true
		r.Ingredients = nil
		r.Instructions = ""
	}
	v.Recipe = r
	return v
}
