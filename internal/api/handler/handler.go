package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/fitsocial/config"
	"github.com/d60-Lab/fitsocial/internal/api/middleware"
	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/service"
	"github.com/d60-Lab/fitsocial/pkg/pagination"
	"github.com/d60-Lab/fitsocial/pkg/response"
)

// Services 处理器依赖的领域服务
type Services struct {
	Graph         service.FollowGraph
	Reactions     service.Reactions
	Comments      service.CommentThread
	Feed          service.ActivityFeed
	Workouts      service.WorkoutLog
	Routines      service.RoutineBook
	Users         service.UserDirectory
	Notifications service.NotificationService
}

type Handler struct {
	svc         Services
	defaultSize int
}

func New(svc Services, cfg config.PaginationConfig) *Handler {
	defaultSize := cfg.DefaultSize
	if defaultSize <= 0 {
		defaultSize = 20
	}
	return &Handler{svc: svc, defaultSize: defaultSize}
}

// changedResponse 幂等写操作的结果，changed=false 表示目标状态此前已成立
type changedResponse struct {
	Changed bool `json:"changed"`
}

// bindPage 读取 ?page=&size=，缺省 size 取配置值；范围校验由服务层完成
func (h *Handler) bindPage(c *gin.Context) (pagination.Page, bool) {
	page := pagination.New(0, h.defaultSize)
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, err.Error())
		return page, false
	}
	return page, true
}

func (h *Handler) caller(c *gin.Context) string {
	return middleware.UserID(c)
}

// RegisterValidators 注册自定义校验规则：parentkind=reactable|commentable
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("parentkind", validateParentKind)
}

func validateParentKind(fl validator.FieldLevel) bool {
	kind, err := model.ParseParentType(fl.Field().String())
	if err != nil {
		return false
	}
	switch fl.Param() {
	case "commentable":
		return kind.Commentable()
	default:
		return kind.Reactable()
	}
}
