package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/accessadmin/internal/api/session"
	"github.com/gatehouse/accessadmin/internal/core/domain"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type stubAuthService struct {
	users map[string]*domain.User
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	return nil, domain.ErrInvalidCredentials
}

func (s *stubAuthService) Resolve(ctx context.Context, userID string) (*domain.User, error) {
	if u, ok := s.users[userID]; ok {
		return u, nil
	}
	return nil, domain.ErrUnauthorized
}

// loginCookies returns the session cookies produced by logging user in.
func loginCookies(t *testing.T, user *domain.User) []*http.Cookie {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/login", nil), rec)
	h := session.Middleware(session.NewStore(testSecret, false, time.Hour))(func(c echo.Context) error {
		return session.Login(c, user)
	})
	if err := h(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	return rec.Result().Cookies()
}

func serve(t *testing.T, req *http.Request, mw echo.MiddlewareFunc, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := session.Middleware(session.NewStore(testSecret, false, time.Hour))(mw(next))
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRequireAuth_ValidSession(t *testing.T) {
	alice := &domain.User{ID: "u1", Username: "alice", Role: domain.RoleAdmin}
	stub := &stubAuthService{users: map[string]*domain.User{"u1": alice}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range loginCookies(t, alice) {
		req.AddCookie(ck)
	}

	called := false
	rec := serve(t, req, RequireAuth(stub), func(c echo.Context) error {
		called = true
		if c.Get("username") != "alice" {
			t.Fatalf("username not set")
		}
		if c.Get("role") != "admin" {
			t.Fatalf("role not set")
		}
		if c.Get("user_id") != "u1" {
			t.Fatalf("user_id not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAuth_RoleReloaded(t *testing.T) {
	bob := &domain.User{ID: "u2", Username: "bob", Role: domain.RoleUser}
	cookies := loginCookies(t, bob)

	promoted := *bob
	promoted.Role = domain.RoleAdmin
	stub := &stubAuthService{users: map[string]*domain.User{"u2": &promoted}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := serve(t, req, RequireAuth(stub), func(c echo.Context) error {
		if c.Get("role") != "admin" {
			t.Fatalf("expected reloaded role admin, got %v", c.Get("role"))
		}
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAuth_MissingSession(t *testing.T) {
	stub := &stubAuthService{}
	rec := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), RequireAuth(stub), func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	ghost := &domain.User{ID: "gone", Username: "ghost", Role: domain.RoleUser}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range loginCookies(t, ghost) {
		req.AddCookie(ck)
	}

	rec := serve(t, req, RequireAuth(&stubAuthService{}), func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
