package routes_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/templui/stash/internal/app"
	"github.com/templui/stash/internal/config"
	"github.com/templui/stash/internal/db/dbtest"
	"github.com/templui/stash/internal/middleware"
	"github.com/templui/stash/internal/model"
	"github.com/templui/stash/internal/routes"
	"github.com/templui/stash/internal/service"
)

type fakeResolver struct{}

func (fakeResolver) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

// Resolve treats the code as the subject so each test can mint accounts.
func (fakeResolver) Resolve(_ context.Context, code string) (model.Identity, error) {
	if code == "bad" {
		return model.Identity{}, errors.New("invalid_grant")
	}
	return model.Identity{
		Subject: "sub-" + code,
		Email:   code + "@example.com",
		Name:    strings.ToUpper(code[:1]) + code[1:],
	}, nil
}

type RoutesSuite struct {
	suite.Suite
	app     *app.App
	handler http.Handler
}

func TestRoutes(t *testing.T) {
	suite.Run(t, new(RoutesSuite))
}

func (s *RoutesSuite) SetupTest() {
	cfg := &config.Config{
		AppName:                 "Stash",
		AppEnv:                  "development",
		AppURL:                  "http://localhost:8090",
		Port:                    "8090",
		DBDriver:                "sqlite",
		JWTSecret:               "routes-secret",
		JWTExpiry:               time.Hour,
		CORSAllowedOrigins:      []string{"*"},
		RateLimitRPS:            100,
		RateLimitBurst:          100,
		FeedLimit:               20,
		LeaderboardLimit:        10,
		DashboardSacrificeLimit: 5,
	}
	s.app = app.Build(cfg, dbtest.New(s.T()), fakeResolver{})
	s.handler = routes.SetupRoutes(s.app)
}

func (s *RoutesSuite) do(method, path, body string, setup func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// signIn exchanges a code for a token through the public endpoint.
func (s *RoutesSuite) signIn(code string) (accountID, token string) {
	rec := s.do(http.MethodPost, "/auth/google/token", `{"code":"`+code+`"}`, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccountID string `json:"account_id"`
		Token     string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().NotEmpty(resp.Token)
	return resp.AccountID, resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *RoutesSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func (s *RoutesSuite) TestMetricsOpenInDevelopment() {
	s.do(http.MethodGet, "/healthz", "", nil)

	rec := s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "http_requests_total")
}

func (s *RoutesSuite) TestProtectedRoutesRequireAuth() {
	for _, path := range []string{"/api/me", "/api/dashboard"} {
		rec := s.do(http.MethodGet, path, "", nil)
		s.Equal(http.StatusUnauthorized, rec.Code, path)
	}

	rec := s.do(http.MethodPost, "/api/sacrifices", `{"title":"Coffee","amount":4.5}`, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/me", "", bearer("not-a-jwt"))
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RoutesSuite) TestTokenExchange() {
	rec := s.do(http.MethodPost, "/auth/google/token", `{"code":"bad"}`, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/auth/google/token", `{"code":""}`, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	accountID, token := s.signIn("ada")
	again, _ := s.signIn("ada")
	s.Equal(accountID, again, "same subject signs into the same account")

	rec = s.do(http.MethodGet, "/api/me", "", bearer(token))
	s.Require().Equal(http.StatusOK, rec.Code)

	me := decode[model.Account](s.T(), rec)
	s.Equal(accountID, me.ID)
	s.Equal("Ada", me.DisplayName)
	s.Equal("ada@example.com", me.Email)
	s.Equal(model.Money(0), me.TotalSaved)
	s.NotContains(rec.Body.String(), "provider_subject")
}

func (s *RoutesSuite) TestLogSacrifice() {
	_, token := s.signIn("ada")

	type receipt struct {
		Message         string      `json:"message"`
		SacrificeID     string      `json:"sacrifice_id"`
		RepetitionCount int         `json:"repetition_count"`
		TotalSaved      model.Money `json:"total_saved"`
		CurrentStreak   int         `json:"current_streak"`
	}

	rec := s.do(http.MethodPost, "/api/sacrifices", `{"title":"Coffee","amount":4.50}`, bearer(token))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[receipt](s.T(), rec)
	s.Equal("Sacrifice logged", first.Message)
	s.Equal(1, first.RepetitionCount)
	s.Equal(model.MustMoney("4.50"), first.TotalSaved)
	s.Equal(1, first.CurrentStreak)

	rec = s.do(http.MethodPost, "/api/sacrifices", `{"title":"Coffee","amount":"4.50"}`, bearer(token))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	second := decode[receipt](s.T(), rec)
	s.Equal(first.SacrificeID, second.SacrificeID)
	s.Equal(2, second.RepetitionCount)
	s.Equal(model.MustMoney("9.00"), second.TotalSaved)
	s.Equal(2, second.CurrentStreak)
}

func (s *RoutesSuite) TestValidationErrors() {
	_, token := s.signIn("ada")

	tests := []struct {
		name  string
		path  string
		body  string
		field string
	}{
		{name: "negative amount", path: "/api/sacrifices", body: `{"title":"Coffee","amount":-1}`, field: "amount"},
		{name: "blank title", path: "/api/sacrifices", body: `{"title":"   ","amount":1}`, field: "title"},
		{name: "sub-cent amount", path: "/api/sacrifices", body: `{"title":"Coffee","amount":1.005}`, field: "amount"},
		{name: "zero target", path: "/api/goals", body: `{"title":"Trip","target_amount":0}`, field: "target_amount"},
		{name: "unknown field", path: "/api/goals", body: `{"title":"Trip","target_amount":10,"owner":"x"}`, field: "body"},
		{name: "not json", path: "/api/goals", body: `{`, field: "body"},
		{name: "two objects", path: "/api/goals", body: `{"title":"Trip","target_amount":10}{}`, field: "body"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, tt.path, tt.body, bearer(token))
			s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())

			body := decode[map[string]any](s.T(), rec)
			s.Equal(tt.field, body["field"])
			s.NotEmpty(body["error"])
		})
	}
}

func (s *RoutesSuite) TestCreateGoalAndDashboard() {
	_, token := s.signIn("ada")

	rec := s.do(http.MethodPost, "/api/goals", `{"title":"Japan trip","target_amount":1500,"category":"Travel"}`, bearer(token))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	goal := decode[map[string]string](s.T(), rec)
	s.NotEmpty(goal["id"])
	s.Equal("Japan trip", goal["title"])

	rec = s.do(http.MethodPost, "/api/sacrifices", `{"title":"Lunch out","amount":12}`, bearer(token))
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/dashboard", "", bearer(token))
	s.Require().Equal(http.StatusOK, rec.Code)

	dashboard := decode[model.Dashboard](s.T(), rec)
	s.Require().NotNil(dashboard.Account)
	s.Equal(model.MustMoney("12.00"), dashboard.Account.TotalSaved)
	s.Require().Len(dashboard.Goals, 1)
	s.Equal(model.MustMoney("1500.00"), dashboard.Goals[0].Target)
	s.Equal(model.Money(0), dashboard.Goals[0].Progress)
	s.Equal("Travel", dashboard.Goals[0].Category)
	s.Require().Len(dashboard.Sacrifices, 1)
	s.Equal("Lunch out", dashboard.Sacrifices[0].Title)
}

func (s *RoutesSuite) TestEmptyListsAreArrays() {
	for _, path := range []string{"/api/feed", "/api/leaderboard"} {
		rec := s.do(http.MethodGet, path, "", nil)
		s.Require().Equal(http.StatusOK, rec.Code, path)
		s.JSONEq(`[]`, rec.Body.String(), path)
	}
}

func (s *RoutesSuite) TestHugeExponentAmountRejected() {
	_, token := s.signIn("ada")

	rec := s.do(http.MethodPost, "/api/sacrifices", `{"title":"Coffee","amount":1e10000000}`, bearer(token))
	s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/goals", `{"title":"Trip","target_amount":1e10000000}`, bearer(token))
	s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())
}

func (s *RoutesSuite) TestFeedAndLeaderboardArePublic() {
	_, ada := s.signIn("ada")
	_, bob := s.signIn("bob")

	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/goals", `{"title":"Bike","target_amount":300}`, bearer(ada)).Code)
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/sacrifices", `{"title":"Coffee","amount":4.5}`, bearer(ada)).Code)
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/sacrifices", `{"title":"Taxi","amount":20}`, bearer(bob)).Code)

	rec := s.do(http.MethodGet, "/api/feed", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	feed := decode[[]map[string]any](s.T(), rec)
	s.Require().Len(feed, 3)
	s.Equal("sacrifice_logged", feed[0]["kind"])
	s.Equal("Bob", feed[0]["name"])
	s.Equal("goal_created", feed[2]["kind"])

	rec = s.do(http.MethodGet, "/api/leaderboard", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	board := decode[[]model.LeaderboardEntry](s.T(), rec)
	s.Require().Len(board, 2)
	s.Equal(1, board[0].Rank)
	s.Equal("Bob", board[0].DisplayName)
	s.Equal(model.MustMoney("20.00"), board[0].TotalSaved)
	s.Equal(2, board[1].Rank)
}

func (s *RoutesSuite) TestGoogleBrowserFlow() {
	rec := s.do(http.MethodGet, "/auth/google", "", nil)
	s.Require().Equal(http.StatusTemporaryRedirect, rec.Code)

	var stateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			stateCookie = c
		}
	}
	s.Require().NotNil(stateCookie)

	location, err := url.Parse(rec.Header().Get("Location"))
	s.Require().NoError(err)
	s.Equal(stateCookie.Value, location.Query().Get("state"))

	s.Run("state mismatch", func() {
		rec := s.do(http.MethodGet, "/auth/google/callback?state=other&code=ada", "", func(r *http.Request) {
			r.AddCookie(stateCookie)
		})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	rec = s.do(http.MethodGet, "/auth/google/callback?state="+url.QueryEscape(stateCookie.Value)+"&code=ada", "", func(r *http.Request) {
		r.AddCookie(stateCookie)
	})
	s.Require().Equal(http.StatusSeeOther, rec.Code)
	s.True(strings.HasPrefix(rec.Header().Get("Location"), "http://localhost:8090/?token="))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == service.AuthCookieName {
			session = c
		}
	}
	s.Require().NotNil(session)
	s.True(session.HttpOnly)

	rec = s.do(http.MethodGet, "/api/me", "", func(r *http.Request) {
		r.AddCookie(session)
	})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RoutesSuite) TestCookieSessionNeedsCSRFToken() {
	_, token := s.signIn("ada")
	session := &http.Cookie{Name: service.AuthCookieName, Value: token}

	rec := s.do(http.MethodPost, "/api/sacrifices", `{"title":"Coffee","amount":4.5}`, func(r *http.Request) {
		r.AddCookie(session)
	})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/me", "", func(r *http.Request) {
		r.AddCookie(session)
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	csrfToken := rec.Header().Get(middleware.CSRFHeader)
	s.Require().NotEmpty(csrfToken)

	var csrfCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "csrf_token" {
			csrfCookie = c
		}
	}
	s.Require().NotNil(csrfCookie)

	rec = s.do(http.MethodPost, "/api/sacrifices", `{"title":"Coffee","amount":4.5}`, func(r *http.Request) {
		r.AddCookie(session)
		r.AddCookie(csrfCookie)
		r.Header.Set(middleware.CSRFHeader, csrfToken)
	})
	s.Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *RoutesSuite) TestLogout() {
	rec := s.do(http.MethodPost, "/auth/logout", "", nil)
	s.Equal(http.StatusNoContent, rec.Code)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == service.AuthCookieName && c.Value == "" {
			cleared = true
		}
	}
	s.True(cleared)
}

func TestMetricsRequireCredentialsWhenConfigured(t *testing.T) {
	cfg := &config.Config{
		AppEnv:             "development",
		AppURL:             "http://localhost:8090",
		JWTSecret:          "routes-secret",
		JWTExpiry:          time.Hour,
		CORSAllowedOrigins: []string{"*"},
		RateLimitRPS:       100,
		RateLimitBurst:     100,
		FeedLimit:          20,
		LeaderboardLimit:   10,
		MetricsUser:        "ops",
		MetricsPass:        "s3cret",
	}
	h := routes.SetupRoutes(app.Build(cfg, dbtest.New(t), fakeResolver{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("ops", "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
