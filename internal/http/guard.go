package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"comment-board/internal/domain"
)

const authCookieName = "auth-token"

// routeGuard runs on every request. Logged-in users are bounced off the
// auth pages; everyone else is bounced off protected pages. An invalid
// or expired token is treated as logged-out and the cookie is cleared,
// on protected routes as well as auth routes.
func (h *Handler) routeGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		token, err := c.Cookie(authCookieName)
		if err != nil || token == "" {
			if isProtectedRoute(path) {
				c.Redirect(http.StatusFound, "/login")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if _, err := h.tokens.Parse(token); err != nil {
			h.clearAuthCookie(c)
			if isProtectedRoute(path) {
				c.Redirect(http.StatusFound, "/login")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		if isAuthRoute(path) {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func isAuthRoute(path string) bool {
	return path == "/login" || path == "/register"
}

func isProtectedRoute(path string) bool {
	return path == "/dashboard" || strings.HasPrefix(path, "/dashboard/")
}

// currentUser resolves the session cookie into an identity, or nil when
// the cookie is missing or its token does not verify. Read-only: the
// token is never refreshed here.
func (h *Handler) currentUser(c *gin.Context) *domain.Identity {
	token, err := c.Cookie(authCookieName)
	if err != nil || token == "" {
		return nil
	}
	claims, err := h.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return &domain.Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}
}

func (h *Handler) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authCookieName, token, int(h.tokens.TTL().Seconds()), "/", "", h.secureCookies, true)
}

func (h *Handler) clearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authCookieName, "", -1, "/", "", h.secureCookies, true)
}
