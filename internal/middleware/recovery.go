package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/birthcare-portal/pkg/httputil"
)

// Recovery turns a panic in a page handler into a 500 envelope. The panic is logged on the
// request logger with the route and, when signed in, the user.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			event := zerolog.Ctx(c.Request.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("method", c.Request.Method).
				Str("route", c.FullPath())
			if s := SessionFrom(c); s != nil {
				event = event.Int64("user_id", s.UserID)
			}
			event.Msg("page handler panicked")

			c.AbortWithStatusJSON(http.StatusInternalServerError, &httputil.Response{
				Status:  "error",
				Message: "internal server error",
				Data:    gin.H{"request_id": c.GetString(ContextRequestID)},
			})
		}()
		c.Next()
	}
}
