package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jupiterclapton/cheffy/internal/core/domain"
	"github.com/jupiterclapton/cheffy/internal/core/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testServer struct {
	sessions *fakeSessions
	recipes  *MockRecipeService
	social   *MockSocialService
	admin    *MockAdminService
	premium  *MockPremiumService
	handler  http.Handler

	user    *domain.Identity
	chef    *domain.Identity
	blocked *domain.Identity
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		recipes: new(MockRecipeService),
		social:  new(MockSocialService),
		admin:   new(MockAdminService),
		premium: new(MockPremiumService),
		user:    &domain.Identity{ID: "u1", Name: "Ada", Role: domain.RoleUser, Status: domain.StatusActive},
		chef:    &domain.Identity{ID: "a1", Name: "Admin", Role: domain.RoleAdmin, Status: domain.StatusActive},
		blocked: &domain.Identity{ID: "b1", Name: "Bob", Role: domain.RoleUser, Status: domain.StatusBlocked},
	}
	ts.sessions = &fakeSessions{identities: map[string]*domain.Identity{
		"user-token":    ts.user,
		"admin-token":   ts.chef,
		"blocked-token": ts.blocked,
	}}
	ts.handler = NewRouter(Services{
		Sessions: ts.sessions,
		Recipes:  ts.recipes,
		Social:   ts.social,
		Admin:    ts.admin,
		Premium:  ts.premium,
	}, Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		Guard:          domain.NewGuard(nil),
	})

	t.Cleanup(func() {
		ts.recipes.AssertExpectations(t)
		ts.social.AssertExpectations(t)
		ts.admin.AssertExpectations(t)
		ts.premium.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestPageGuardRedirects(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		token    string
		path     string
		location string
	}{
		{"anonymous home", "", "/", "/login?redirect=/"},
		{"anonymous recipe", "", "/recipe/r1", "/login?redirect=/recipe/r1"},
		{"anonymous editor", "", "/recipe/new", "/login?redirect=/recipe/new"},
		{"blocked user anywhere", "blocked-token", "/profile/u1", "/login?status=blocked"},
		{"blocked user on login", "blocked-token", "/login", "/login?status=blocked"},
		{"admin outside panel", "admin-token", "/", "/admin-dashboard"},
		{"admin on premium page", "admin-token", "/premium", "/admin-dashboard"},
		{"user on admin page", "user-token", "/admin-user", "/"},
		{"user on login", "user-token", "/login", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, httptest.NewRequest(http.MethodGet, tt.path, nil), tt.token)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestAuthPageEchoesQuery(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/login?status=blocked&redirect=/recipe/r1", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page authPage
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &page))
	assert.Equal(t, "blocked", page.Status)
	assert.Equal(t, "/recipe/r1", page.Redirect)
}

func TestHomeSurvivesSuggestionFailure(t *testing.T) {
	ts := newTestServer(t)
	feed := []ports.RecipeView{{Recipe: domain.Recipe{ID: "r1", Title: "Tarte"}, Upvotes: 2}}
	ts.recipes.On("Feed", mock.Anything, ts.user, ports.FeedFollowing, ports.RecipeQuery{Tag: "dessert"}).Return(feed, nil)
	ts.social.On("Suggestions", mock.Anything, ts.user).Return(nil, errors.New("backend down"))

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/?tab=following&tag=dessert", nil), "user-token")
	require.Equal(t, http.StatusOK, rec.Code)

	var page homePage
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &page))
	assert.Equal(t, ports.FeedFollowing, page.Tab)
	require.Len(t, page.Feed, 1)
	assert.Equal(t, "r1", page.Feed[0].Recipe.ID)
	assert.Empty(t, page.Suggestions)
}

func TestAdminBrowsesProfiles(t *testing.T) {
	ts := newTestServer(t)
	ts.social.On("Profile", mock.Anything, ts.chef, "u1").Return(&ports.ProfileView{User: domain.User{Identity: *ts.user}}, nil)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/profile/u1", nil), "admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminDashboardPage(t *testing.T) {
	ts := newTestServer(t)
	ts.admin.On("Dashboard", mock.Anything).Return(&ports.DashboardStats{Users: 3, ReportedRecipes: 1}, nil)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin-dashboard", nil), "admin-token")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats ports.DashboardStats
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &stats))
	assert.Equal(t, 3, stats.Users)
	assert.Equal(t, 1, stats.ReportedRecipes)
}

func TestAPIAccessControl(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		msg    string
	}{
		{"anonymous create", http.MethodPost, "/api/recipes", "", http.StatusUnauthorized, domain.ErrUnauthenticated.Error()},
		{"anonymous me", http.MethodGet, "/api/me", "", http.StatusUnauthorized, domain.ErrUnauthenticated.Error()},
		{"unknown token", http.MethodGet, "/api/me", "stale-token", http.StatusUnauthorized, domain.ErrUnauthenticated.Error()},
		{"blocked vote", http.MethodPost, "/api/recipes/r1/vote", "blocked-token", http.StatusForbidden, domain.ErrBlocked.Error()},
		{"user on admin api", http.MethodDelete, "/api/admin/recipes/r1", "user-token", http.StatusForbidden, domain.ErrForbidden.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, jsonRequest(t, tt.method, tt.path, map[string]string{}), tt.token)
			assert.Equal(t, tt.status, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tt.msg, env.Message)
		})
	}
}

func TestBearerHeaderAuthenticates(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := ts.do(t, req, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var me domain.Identity
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &me))
	assert.Equal(t, "u1", me.ID)
}

func TestLoginSetsCookie(t *testing.T) {
	ts := newTestServer(t)
	expires := time.Now().Add(time.Hour)
	ts.sessions.login = &ports.Session{Identity: ts.chef, Token: "fresh-token", ExpiresAt: expires}

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", loginRequest{Email: "a@cheffy.test", Password: "secret1"}), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, "fresh-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Positive(t, cookie.MaxAge)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	assert.Equal(t, domain.PathAdminDashboard, resp.Redirect)
}

func TestLoginPassesBackendMessage(t *testing.T) {
	ts := newTestServer(t)
	ts.sessions.loginErr = &statusError{status: http.StatusUnauthorized, msg: "Invalid email or password"}

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", loginRequest{Email: "a@cheffy.test", Password: "nope"}), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeEnvelope(t, rec).Message)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSignupValidationError(t *testing.T) {
	ts := newTestServer(t)
	ts.sessions.loginErr = domain.ErrPasswordMismatch

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/auth/signup", signupRequest{Name: "Ada"}), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrPasswordMismatch.Error(), decodeEnvelope(t, rec).Message)
}

func TestLogoutClearsCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), "user-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"user-token"}, ts.sessions.loggedOut)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/recipes", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := ts.do(t, req, "user-token")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errBadRequest.Error(), decodeEnvelope(t, rec).Message)
}

func TestRecipeEndpoints(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		ts := newTestServer(t)
		in := domain.RecipeInput{Title: "Tarte", CookingTime: 30, Ingredients: []string{"pommes"}}
		ts.recipes.On("Create", mock.Anything, ts.user, in).Return(&domain.Recipe{ID: "r9", Title: "Tarte"}, nil)

		rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/recipes", in), "user-token")
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("vote", func(t *testing.T) {
		ts := newTestServer(t)
		ts.recipes.On("Vote", mock.Anything, ts.user, "r1", domain.VoteUp).Return(&ports.RecipeView{Upvotes: 1}, nil)

		rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/recipes/r1/vote", voteRequest{Direction: domain.VoteUp}), "user-token")
		require.Equal(t, http.StatusOK, rec.Code)

		var view ports.RecipeView
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &view))
		assert.Equal(t, 1, view.Upvotes)
	})

	t.Run("rate out of range", func(t *testing.T) {
		ts := newTestServer(t)
		ts.recipes.On("Rate", mock.Anything, ts.user, "r1", 9).Return(nil, domain.ErrInvalidRating)

		rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/recipes/r1/rating", rateRequest{Rating: 9}), "user-token")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete someone else's recipe", func(t *testing.T) {
		ts := newTestServer(t)
		ts.recipes.On("Delete", mock.Anything, ts.user, "r2").Return(domain.ErrForbidden)

		rec := ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/recipes/r2", nil), "user-token")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("report", func(t *testing.T) {
		ts := newTestServer(t)
		ts.recipes.On("Report", mock.Anything, ts.user, "r1").Return(nil)

		rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/recipes/r1/report", nil), "user-token")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing recipe", func(t *testing.T) {
		ts := newTestServer(t)
		ts.recipes.On("Get", mock.Anything, ts.user, "nope").Return(nil, domain.ErrRecipeNotFound)

		rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/recipe/nope", nil), "user-token")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFollowEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.social.On("Follow", mock.Anything, ts.user, "u2").Return(&domain.User{Identity: domain.Identity{ID: "u2"}}, nil)
	ts.social.On("Unfollow", mock.Anything, ts.user, "u1").Return(nil, domain.ErrSelfFollow)

	rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/users/u2/follow", nil), "user-token")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/users/u1/follow", nil), "user-token")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout(t *testing.T) {
	t.Run("form post redirects", func(t *testing.T) {
		ts := newTestServer(t)
		ts.premium.On("Checkout", mock.Anything, ts.user, "yearly").Return("https://pay.test/yearly", nil)

		form := url.Values{"plan": {"yearly"}}
		req := httptest.NewRequest(http.MethodPost, "/api/premium/checkout", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := ts.do(t, req, "user-token")

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "https://pay.test/yearly", rec.Header().Get("Location"))
	})

	t.Run("json client gets the url", func(t *testing.T) {
		ts := newTestServer(t)
		ts.premium.On("Checkout", mock.Anything, ts.user, "").Return("https://pay.test/monthly", nil)

		req := jsonRequest(t, http.MethodPost, "/api/premium/checkout", nil)
		req.Header.Set("Accept", "application/json")
		rec := ts.do(t, req, "user-token")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp uploadResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
		assert.Equal(t, "https://pay.test/monthly", resp.URL)
	})

	t.Run("already premium", func(t *testing.T) {
		ts := newTestServer(t)
		ts.premium.On("Checkout", mock.Anything, ts.user, "monthly").Return("", domain.ErrAlreadyPremium)

		req := jsonRequest(t, http.MethodPost, "/api/premium/checkout", checkoutRequest{Plan: "monthly"})
		rec := ts.do(t, req, "user-token")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUploadImage(t *testing.T) {
	ts := newTestServer(t)
	data := []byte("\x89PNG fake image")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="pie.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	ts.premium.On("UploadImage", mock.Anything, ts.user, mock.MatchedBy(func(cmd ports.UploadCmd) bool {
		return cmd.Filename == "pie.png" && cmd.ContentType == "image/png" && cmd.Size == int64(len(data))
	})).Return("https://cdn.test/pie.png", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := ts.do(t, req, "user-token")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	assert.Equal(t, "https://cdn.test/pie.png", resp.URL)
}

func TestUploadImageMissingField(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "no file"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := ts.do(t, req, "user-token")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAPI(t *testing.T) {
	ts := newTestServer(t)
	ts.admin.On("SetUserStatus", mock.Anything, ts.chef, "u1", domain.StatusBlocked).
		Return(&domain.User{Identity: domain.Identity{ID: "u1", Status: domain.StatusBlocked}}, nil)
	ts.admin.On("DeleteRecipe", mock.Anything, "r1").Return(nil)

	rec := ts.do(t, jsonRequest(t, http.MethodPatch, "/api/admin/users/u1/status", statusRequest{Status: domain.StatusBlocked}), "admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/admin/recipes/r1", nil), "admin-token")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthAndCORS(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/recipes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = ts.do(t, req, "")
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestBlockedNavigationDropsCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/recipe/r1", nil), "blocked-token")
	require.Equal(t, http.StatusFound, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)

	// La navigation suivante, sans cookie, atteint la page de login
	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/login?status=blocked", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardCoversUnroutedPaths(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		token    string
		path     string
		status   int
		location string
	}{
		{"anonymous unknown page", "", "/settings", http.StatusFound, "/login?redirect=/settings"},
		{"anonymous nested unknown page", "", "/settings/privacy", http.StatusFound, "/login?redirect=/settings/privacy"},
		{"blocked unknown page", "blocked-token", "/settings", http.StatusFound, "/login?status=blocked"},
		{"admin unknown page", "admin-token", "/settings", http.StatusFound, "/admin-dashboard"},
		{"user on admin page with trailing slash", "user-token", "/admin-user/", http.StatusFound, "/"},
		{"user unknown page", "user-token", "/settings", http.StatusNotFound, ""},
		{"admin bare profile prefix", "admin-token", "/profile", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, httptest.NewRequest(http.MethodGet, tt.path, nil), tt.token)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestTrailingSlashReachesPage(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/login/?status=blocked", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var page authPage
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &page))
	assert.Equal(t, "blocked", page.Status)
}

func TestAPIIsNotRedirected(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/unknown", nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}
