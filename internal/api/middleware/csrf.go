package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/gatehouse/accessadmin/internal/api/session"
)

const (
	CSRFHeader    = "X-CSRF-Token"
	CSRFFormField = "_csrf"
)

// CSRF rejects state-changing requests whose token does not match the
// session nonce. Safe methods and skipped requests pass through.
func CSRF(signer *session.CSRFSigner, skipper echomiddleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomiddleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				return next(c)
			}
			if skipper(c) {
				return next(c)
			}

			token := c.Request().Header.Get(CSRFHeader)
			if token == "" {
				token = c.FormValue(CSRFFormField)
			}
			nonce, err := session.CurrentNonce(c)
			if err != nil || signer.Verify(token, nonce) != nil {
				return echo.NewHTTPError(http.StatusForbidden, "invalid csrf token")
			}
			return next(c)
		}
	}
}

// SkipPaths returns a skipper matching the given request paths exactly.
func SkipPaths(paths ...string) echomiddleware.Skipper {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(c echo.Context) bool {
		_, ok := set[c.Request().URL.Path]
		return ok
	}
}
