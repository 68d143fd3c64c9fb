package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/birthcare-portal/internal/auth"
	"github.com/jwalitptl/birthcare-portal/internal/model"
	"github.com/jwalitptl/birthcare-portal/pkg/httputil"
)

const ContextSession = "session"

// Session parses the bearer token or session cookie into a *model.Session. Requests
// without a valid token continue without one; Require decides what they may reach.
func Session(secret []byte, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader("Authorization"))
		if token == "" && cookieName != "" {
			if v, err := c.Cookie(cookieName); err == nil {
				token = v
			}
		}
		if token != "" {
			if s, err := auth.ParseSession(token, secret); err == nil {
				c.Set(ContextSession, s)
			} else {
				_ = c.Error(err)
			}
		}
		c.Next()
	}
}

func bearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SessionFrom returns the session set by Session, or nil.
func SessionFrom(c *gin.Context) *model.Session {
	if v, ok := c.Get(ContextSession); ok {
		if s, ok := v.(*model.Session); ok {
			return s
		}
	}
	return nil
}

// Require stops requests whose session does not satisfy req.
func Require(req auth.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d := auth.Authorize(SessionFrom(c), req); !d.Allow {
			Deny(c, d)
			return
		}
		c.Next()
	}
}

// Deny answers a refused decision. Browser navigations are redirected; API calls get
// 401 or 403 with the redirect target in the body.
func Deny(c *gin.Context, d auth.Decision) {
	if c.Request.Method == http.MethodGet && strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusFound, d.RedirectTo)
		c.Abort()
		return
	}
	status, message := http.StatusForbidden, "permission denied"
	if d.RedirectTo == auth.LoginPath {
		status, message = http.StatusUnauthorized, "unauthorized"
	}
	httputil.RespondWithErrorData(c, status, message, d)
}
