package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gatehouse/accessadmin/internal/api/session"
	"github.com/gatehouse/accessadmin/internal/core/domain"
)

func csrfFixture(t *testing.T) (*session.CSRFSigner, []*http.Cookie, string) {
	t.Helper()
	signer := session.NewCSRFSigner(session.DeriveKey(testSecret, "csrf"), time.Hour)
	cookies := loginCookies(t, &domain.User{ID: "u1", Username: "alice", Role: domain.RoleUser})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/csrf-token", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	var token string
	h := session.Middleware(session.NewStore(testSecret, false, time.Hour))(func(c echo.Context) error {
		nonce, err := session.Nonce(c)
		if err != nil {
			return err
		}
		token, err = signer.Mint(nonce)
		return err
	})
	if err := h(c); err != nil {
		t.Fatalf("mint: %v", err)
	}
	return signer, cookies, token
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestCSRF_HeaderToken(t *testing.T) {
	signer, cookies, token := csrfFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/communities", nil)
	req.Header.Set(CSRFHeader, token)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := serve(t, req, CSRF(signer, nil), okHandler)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCSRF_FormToken(t *testing.T) {
	signer, cookies, token := csrfFixture(t)

	form := url.Values{CSRFFormField: {token}}
	req := httptest.NewRequest(http.MethodPost, "/api/logout", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := serve(t, req, CSRF(signer, nil), okHandler)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCSRF_MissingToken(t *testing.T) {
	signer, cookies, _ := csrfFixture(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/communities/c1", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := serve(t, req, CSRF(signer, nil), func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCSRF_TokenFromOtherSession(t *testing.T) {
	signer, _, token := csrfFixture(t)
	other := loginCookies(t, &domain.User{ID: "u2", Username: "bob", Role: domain.RoleUser})

	req := httptest.NewRequest(http.MethodPost, "/api/communities", nil)
	req.Header.Set(CSRFHeader, token)
	for _, ck := range other {
		req.AddCookie(ck)
	}
	rec := serve(t, req, CSRF(signer, nil), okHandler)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCSRF_SafeMethodAndSkippedPath(t *testing.T) {
	signer := session.NewCSRFSigner(session.DeriveKey(testSecret, "csrf"), time.Hour)
	mw := CSRF(signer, SkipPaths("/api/log-access"))

	rec := serve(t, httptest.NewRequest(http.MethodGet, "/api/communities", nil), mw, okHandler)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", rec.Code)
	}

	rec = serve(t, httptest.NewRequest(http.MethodPost, "/api/log-access", nil), mw, okHandler)
	if rec.Code != http.StatusOK {
		t.Fatalf("log-access: expected 200, got %d", rec.Code)
	}
}
