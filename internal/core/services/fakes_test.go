package services

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

var errBackendDown = errors.New("backend unavailable")

// fakeBackend is an in-memory ports.Backend.
type fakeBackend struct {
	mu      sync.Mutex
	users   map[string]domain.User
	recipes map[string]domain.Recipe
	tokens  map[string]string // email -> token

	registered []ports.RegisterCmd
	uploads    []string
	payments   []string
	getUser    int

	failFollow bool
	failVote   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:   map[string]domain.User{},
		recipes: map[string]domain.Recipe{},
		tokens:  map[string]string{},
	}
}

func (f *fakeBackend) addUser(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeBackend) addRecipe(r domain.Recipe) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipes[r.ID] = r
}

func (f *fakeBackend) Login(_ context.Context, email, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[email]
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return tok, nil
}

func (f *fakeBackend) Register(_ context.Context, cmd ports.RegisterCmd) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, cmd)
	return "token-" + cmd.Email, nil
}

func (f *fakeBackend) GetUser(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getUser++
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeBackend) ListUsers(context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b domain.User) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (f *fakeBackend) Follow(_ context.Context, actorID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFollow {
		return errBackendDown
	}
	actor, target := f.users[actorID], f.users[targetID]
	f.users[actorID] = actor.WithFollowing(target.Edge())
	target.Followers = append(slices.Clone(target.Followers), actor.Edge())
	f.users[targetID] = target
	return nil
}

func (f *fakeBackend) Unfollow(_ context.Context, actorID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFollow {
		return errBackendDown
	}
	f.users[actorID] = f.users[actorID].WithoutFollowing(targetID)
	return nil
}

func (f *fakeBackend) UpdateUserStatus(_ context.Context, id string, status domain.Status) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Status = status
	f.users[id] = u
	return &u, nil
}

func (f *fakeBackend) ListRecipes(_ context.Context, q ports.RecipeQuery) ([]domain.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Recipe
	for _, r := range f.recipes {
		if len(q.AuthorIDs) > 0 && !slices.Contains(q.AuthorIDs, r.AuthorID) {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.Recipe) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (f *fakeBackend) GetRecipe(_ context.Context, id string) (*domain.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipes[id]
	if !ok {
		return nil, domain.ErrRecipeNotFound
	}
	return &r, nil
}

func (f *fakeBackend) CreateRecipe(_ context.Context, authorID string, in domain.RecipeInput) (*domain.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := domain.Recipe{
		ID:           "r" + string(rune('0'+len(f.recipes))),
		Title:        in.Title,
		Description:  in.Description,
		Ingredients:  in.Ingredients,
		Instructions: in.Instructions,
		CookingTime:  in.CookingTime,
		Tags:         in.Tags,
		Premium:      in.Premium,
		AuthorID:     authorID,
	}
	f.recipes[r.ID] = r
	return &r, nil
}

func (f *fakeBackend) UpdateRecipe(_ context.Context, id string, in domain.RecipeInput) (*domain.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recipes[id]
	if !ok {
		return nil, domain.ErrRecipeNotFound
	}
	r.Title, r.Description = in.Title, in.Description
	f.recipes[id] = r
	return &r, nil
}

func (f *fakeBackend) DeleteRecipe(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recipes[id]; !ok {
		return domain.ErrRecipeNotFound
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeBackend) Vote(_ context.Context, recipeID string, vote domain.Vote) (*domain.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failVote {
		return nil, errBackendDown
	}
	r := f.recipes[recipeID]
	r.Votes = slices.DeleteFunc(slices.Clone(r.Votes), func(v domain.Vote) bool { return v.ID == vote.ID })
	r.Votes = append(r.Votes, vote)
	f.recipes[recipeID] = r
	return &r, nil
}

func (f *fakeBackend) Rate(_ context.Context, recipeID string, rating domain.Rating) (*domain.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.recipes[recipeID]
	r.Ratings = slices.DeleteFunc(slices.Clone(r.Ratings), func(x domain.Rating) bool { return x.ID == rating.ID })
	r.Ratings = append(r.Ratings, rating)
	f.recipes[recipeID] = r
	return &r, nil
}

func (f *fakeBackend) AddComment(_ context.Context, recipeID string, c domain.Comment) (*domain.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.recipes[recipeID]
	r.Comments = append(slices.Clone(r.Comments), c)
	f.recipes[recipeID] = r
	return &r, nil
}

func (f *fakeBackend) ReportRecipe(_ context.Context, recipeID string) (*domain.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.recipes[recipeID]
	r.ReportCount++
	f.recipes[recipeID] = r
	return &r, nil
}

func (f *fakeBackend) UploadImage(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename)
	return "https://cdn.test/" + filename, nil
}

func (f *fakeBackend) InitiatePayment(_ context.Context, userID, plan string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, userID+":"+plan)
	return "https://pay.test/" + plan, nil
}

var _ ports.Backend = (*fakeBackend)(nil)

// memCache is an in-memory ports.QueryCache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, false, errors.New("cache down")
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache down")
	}
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// fakeResolver maps tokens to identities.
type fakeResolver struct {
	identities map[string]*domain.Identity
	expiry     time.Time
}

func (r *fakeResolver) Resolve(_ context.Context, token string) *domain.Identity {
	return r.identities[token]
}

func (r *fakeResolver) ExpiresAt(string) time.Time { return r.expiry }

// MockRevoker is a mock implementation of ports.TokenRevoker
type MockRevoker struct {
	mock.Mock
}

func (m *MockRevoker) Revoke(ctx context.Context, token string, until time.Time) error {
	return m.Called(ctx, token, until).Error(0)
}

func (m *MockRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

// MockPublisher is a mock implementation of ports.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEngagement(ctx context.Context, ev domain.EngagementEvent) error {
	return m.Called(ctx, ev).Error(0)
}

// MockGeocoder is a mock implementation of ports.Geocoder
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) ReverseCity(ctx context.Context, lat, lng float64) (string, error) {
	args := m.Called(ctx, lat, lng)
	return args.String(0), args.Error(1)
}

func eventOfType(t domain.EventType) any {
	return mock.MatchedBy(func(ev domain.EngagementEvent) bool { return ev.Type == t })
}

func identity(id string) *domain.Identity {
	return &domain.Identity{ID: id, Name: "User " + id, Email: id + "@cheffy.test", Role: domain.RoleUser, Status: domain.StatusActive}
}

func user(id, foodHabit, city string) domain.User {
	u := domain.User{Identity: *identity(id)}
	u.FoodHabit, u.City = foodHabit, city
	return u
}
