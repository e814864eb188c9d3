package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"petvoice/pkg/schema"
)

const (
	HeaderUserID       = "X-User-ID"
	HeaderUserNickname = "X-User-Nickname"

	identityKey = "identity"
)

// withIdentity reads the caller from the request headers. Anonymous requests pass through.
func withIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Request().Header
		id := strings.TrimSpace(h.Get(HeaderUserID))
		if id != "" {
			nickname := strings.TrimSpace(h.Get(HeaderUserNickname))
			if unescaped, err := url.QueryUnescape(nickname); err == nil {
				nickname = unescaped
			}
			c.Set(identityKey, schema.Identity{UserID: id, Nickname: nickname})
		}
		return next(c)
	}
}

func requireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := identity(c); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing "+HeaderUserID+" header")
		}
		return next(c)
	}
}

func identity(c echo.Context) (schema.Identity, bool) {
	id, ok := c.Get(identityKey).(schema.Identity)
	return id, ok
}
