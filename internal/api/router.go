package api

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/d60-Lab/fitsocial/config"
	_ "github.com/d60-Lab/fitsocial/docs"
	"github.com/d60-Lab/fitsocial/internal/api/handler"
	"github.com/d60-Lab/fitsocial/internal/api/middleware"
)

// NewRouter 组装中间件与路由
func NewRouter(cfg *config.Config, h *handler.Handler, log *zap.Logger) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		otelgin.Middleware(cfg.Telemetry.ServiceName),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	limited := limiter.Handler()

	v1 := r.Group("/api/v1", middleware.AccessLog(log))
	v1.POST("/users", limited, h.CreateUser)

	authed := v1.Group("", middleware.Auth(cfg.JWT.Secret, cfg.JWT.Issuer))
	{
		users := authed.Group("/users/:user_id")
		users.GET("", h.GetUser)
		users.POST("/follow", limited, h.Follow)
		users.DELETE("/follow", limited, h.Unfollow)
		users.GET("/followers", h.ListFollowers)
		users.GET("/following", h.ListFollowing)
		users.GET("/workouts", h.ListWorkouts)

		authed.POST("/reactions/toggle", limited, h.ToggleReaction)
		authed.GET("/reactions", h.GetReactions)

		authed.POST("/comments", limited, h.AddComment)
		authed.GET("/comments", h.ListComments)
		authed.DELETE("/comments/:id", limited, h.DeleteComment)

		authed.GET("/feed", h.GetFeed)
		authed.GET("/activities/:id", h.GetActivity)

		authed.POST("/workouts", limited, h.CreateWorkout)
		authed.GET("/workouts/:id", h.GetWorkout)
		authed.DELETE("/workouts/:id", limited, h.DeleteWorkout)

		authed.POST("/routines", limited, h.CreateRoutine)
		authed.GET("/routines/:id", h.GetRoutine)
		authed.POST("/routines/:id/publish", limited, h.PublishRoutine)

		authed.GET("/notifications", h.ListNotifications)
		authed.GET("/notifications/unread-count", h.CountNotifications)
		authed.POST("/notifications/read-all", limited, h.MarkAllNotificationsRead)
		authed.POST("/notifications/:id/read", limited, h.MarkNotificationRead)
	}
	return r, nil
}
