package middleware

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/fitsocial/pkg/response"
)

// Recovery 捕获 panic，上报 Sentry 后返回 500
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.Error("panic recovered",
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Stack("stack"))
			if sentry.CurrentHub().Client() != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(c.Request)
				hub.Scope().SetUser(sentry.User{ID: UserID(c)})
				hub.RecoverWithContext(c.Request.Context(), rec)
				hub.Flush(2 * time.Second)
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				response.Response{Code: "INTERNAL", Message: "internal server error"})
		}()
		c.Next()
	}
}
