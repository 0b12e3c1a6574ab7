// Package session stores the authenticated identity in an encrypted cookie
// and issues CSRF tokens bound to it.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

// Name is the session cookie name.
const Name = "accessadmin_session"

const (
	keyUserID = "user_id"
	keyNonce  = "csrf_nonce"
)

var ErrNoSession = errors.New("no session")

// NewStore returns a cookie store that signs and encrypts session values
// with keys derived from secret.
func NewStore(secret []byte, secure bool, ttl time.Duration) *sessions.CookieStore {
	store := sessions.NewCookieStore(DeriveKey(secret, "session-hash"), DeriveKey(secret, "session-block"))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(store.Options.MaxAge)
	return store
}

// Middleware installs the store for session.Get.
func Middleware(store sessions.Store) echo.MiddlewareFunc {
	return echosession.Middleware(store)
}

// DeriveKey returns a 32-byte key for purpose derived from secret.
func DeriveKey(secret []byte, purpose string) []byte {
	h := sha256.New()
	h.Write([]byte(purpose))
	h.Write([]byte{0})
	h.Write(secret)
	return h.Sum(nil)
}

// get returns the request session. A cookie that fails to decode yields a
// fresh empty session rather than an error.
func get(c echo.Context) (*sessions.Session, error) {
	sess, err := echosession.Get(Name, c)
	if sess == nil {
		return nil, err
	}
	return sess, nil
}

// UserID returns the account id stored in the session.
func UserID(c echo.Context) (string, error) {
	sess, err := get(c)
	if err != nil {
		return "", err
	}
	id, _ := sess.Values[keyUserID].(string)
	if id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

// Login records the user id in the session; identity and role are resolved
// from the store on every request. The CSRF nonce is rotated so tokens
// minted before login stop working.
func Login(c echo.Context, user *domain.User) error {
	sess, err := get(c)
	if err != nil {
		return err
	}
	nonce, err := newNonce()
	if err != nil {
		return err
	}
	sess.Values[keyUserID] = user.ID
	sess.Values[keyNonce] = nonce
	return sess.Save(c.Request(), c.Response())
}

// Logout clears the session and expires the cookie.
func Logout(c echo.Context) error {
	sess, err := get(c)
	if err != nil {
		return err
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// Nonce returns the session CSRF nonce, creating and saving one when the
// session has none yet.
func Nonce(c echo.Context) (string, error) {
	sess, err := get(c)
	if err != nil {
		return "", err
	}
	if nonce, _ := sess.Values[keyNonce].(string); nonce != "" {
		return nonce, nil
	}
	nonce, err := newNonce()
	if err != nil {
		return "", err
	}
	sess.Values[keyNonce] = nonce
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", err
	}
	return nonce, nil
}

// CurrentNonce returns the stored nonce without creating one.
func CurrentNonce(c echo.Context) (string, error) {
	sess, err := get(c)
	if err != nil {
		return "", err
	}
	nonce, _ := sess.Values[keyNonce].(string)
	if nonce == "" {
		return "", ErrNoSession
	}
	return nonce, nil
}

func newNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
