package httpapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

// fakeSessions résout les tokens depuis une table fixe.
type fakeSessions struct {
	identities map[string]*domain.Identity
	login      *ports.Session
	loginErr   error
	logoutErr  error
	loggedOut  []string
}

func (f *fakeSessions) Login(_ context.Context, _ ports.LoginCmd) (*ports.Session, error) {
	return f.login, f.loginErr
}

func (f *fakeSessions) Signup(_ context.Context, _ ports.SignupCmd) (*ports.Session, error) {
	return f.login, f.loginErr
}

func (f *fakeSessions) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return f.logoutErr
}

func (f *fakeSessions) Current(_ context.Context, token string) *domain.Identity {
	return f.identities[token]
}

// MockRecipeService is a mock implementation of ports.RecipeService
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) Feed(ctx context.Context, viewer *domain.Identity, tab ports.FeedTab, q ports.RecipeQuery) ([]ports.RecipeView, error) {
	args := m.Called(ctx, viewer, tab, q)
	views, _ := args.Get(0).([]ports.RecipeView)
	return views, args.Error(1)
}

func (m *MockRecipeService) Get(ctx context.Context, viewer *domain.Identity, id string) (*ports.RecipeView, error) {
	args := m.Called(ctx, viewer, id)
	view, _ := args.Get(0).(*ports.RecipeView)
	return view, args.Error(1)
}

func (m *MockRecipeService) Create(ctx context.Context, viewer *domain.Identity, in domain.RecipeInput) (*domain.Recipe, error) {
	args := m.Called(ctx, viewer, in)
	rec, _ := args.Get(0).(*domain.Recipe)
	return rec, args.Error(1)
}

func (m *MockRecipeService) Update(ctx context.Context, viewer *domain.Identity, id string, in domain.RecipeInput) (*domain.Recipe, error) {
	args := m.Called(ctx, viewer, id, in)
	rec, _ := args.Get(0).(*domain.Recipe)
	return rec, args.Error(1)
}

func (m *MockRecipeService) Delete(ctx context.Context, viewer *domain.Identity, id string) error {
	return m.Called(ctx, viewer, id).Error(0)
}

func (m *MockRecipeService) Vote(ctx context.Context, viewer *domain.Identity, id string, dir domain.VoteDirection) (*ports.RecipeView, error) {
	args := m.Called(ctx, viewer, id, dir)
	view, _ := args.Get(0).(*ports.RecipeView)
	return view, args.Error(1)
}

func (m *MockRecipeService) Rate(ctx context.Context, viewer *domain.Identity, id string, rating int) (*ports.RecipeView, error) {
	args := m.Called(ctx, viewer, id, rating)
	view, _ := args.Get(0).(*ports.RecipeView)
	return view, args.Error(1)
}

func (m *MockRecipeService) Comment(ctx context.Context, viewer *domain.Identity, id, text string) (*ports.RecipeView, error) {
	args := m.Called(ctx, viewer, id, text)
	view, _ := args.Get(0).(*ports.RecipeView)
	return view, args.Error(1)
}

func (m *MockRecipeService) Report(ctx context.Context, viewer *domain.Identity, id string) error {
	return m.Called(ctx, viewer, id).Error(0)
}

// MockSocialService is a mock implementation of ports.SocialService
type MockSocialService struct {
	mock.Mock
}

func (m *MockSocialService) Profile(ctx context.Context, viewer *domain.Identity, userID string) (*ports.ProfileView, error) {
	args := m.Called(ctx, viewer, userID)
	view, _ := args.Get(0).(*ports.ProfileView)
	return view, args.Error(1)
}

func (m *MockSocialService) Follow(ctx context.Context, viewer *domain.Identity, targetID string) (*domain.User, error) {
	args := m.Called(ctx, viewer, targetID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *MockSocialService) Unfollow(ctx context.Context, viewer *domain.Identity, targetID string) (*domain.User, error) {
	args := m.Called(ctx, viewer, targetID)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *MockSocialService) Suggestions(ctx context.Context, viewer *domain.Identity) ([]domain.User, error) {
	args := m.Called(ctx, viewer)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

// MockAdminService is a mock implementation of ports.AdminService
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Dashboard(ctx context.Context) (*ports.DashboardStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*ports.DashboardStats)
	return stats, args.Error(1)
}

func (m *MockAdminService) Users(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func (m *MockAdminService) SetUserStatus(ctx context.Context, admin *domain.Identity, userID string, status domain.Status) (*domain.User, error) {
	args := m.Called(ctx, admin, userID, status)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *MockAdminService) Recipes(ctx context.Context) ([]domain.Recipe, error) {
	args := m.Called(ctx)
	recipes, _ := args.Get(0).([]domain.Recipe)
	return recipes, args.Error(1)
}

func (m *MockAdminService) DeleteRecipe(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockPremiumService is a mock implementation of ports.PremiumService
type MockPremiumService struct {
	mock.Mock
}

func (m *MockPremiumService) Checkout(ctx context.Context, viewer *domain.Identity, plan string) (string, error) {
	args := m.Called(ctx, viewer, plan)
	return args.String(0), args.Error(1)
}

func (m *MockPremiumService) UploadImage(ctx context.Context, viewer *domain.Identity, cmd ports.UploadCmd) (string, error) {
	args := m.Called(ctx, viewer, cmd)
	return args.String(0), args.Error(1)
}

// statusError imite une erreur backend qui porte son propre statut.
type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string         { return e.msg }
func (e *statusError) HTTPStatus() int       { return e.status }
func (e *statusError) PublicMessage() string { return e.msg }
