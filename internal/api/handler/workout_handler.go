package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fitsocial/internal/service"
	"github.com/d60-Lab/fitsocial/pkg/response"
)

type createWorkoutRequest struct {
	Title     string     `json:"title" binding:"required,max=255"`
	Notes     string     `json:"notes"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	IsPrivate bool       `json:"isPrivate"`
}

// CreateWorkout 记录训练，同时产生 WORKOUT_CREATED 动态
// @Summary 新建训练记录
// @Tags 训练
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createWorkoutRequest true "训练记录"
// @Success 201 {object} response.Response{data=model.Workout}
// @Failure 400 {object} response.Response
// @Router /api/v1/workouts [post]
func (h *Handler) CreateWorkout(c *gin.Context) {
	var req createWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	w, err := h.svc.Workouts.Create(c.Request.Context(), h.caller(c), service.WorkoutInput{
		Title:     req.Title,
		Notes:     req.Notes,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, w)
}

// GetWorkout 查询训练记录，他人的私密记录返回 404
// @Summary 训练记录详情
// @Tags 训练
// @Produce json
// @Security BearerAuth
// @Param id path string true "训练ID"
// @Success 200 {object} response.Response{data=model.Workout}
// @Failure 404 {object} response.Response
// @Router /api/v1/workouts/{id} [get]
func (h *Handler) GetWorkout(c *gin.Context) {
	w, err := h.svc.Workouts.Get(c.Request.Context(), c.Param("id"), h.caller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, w)
}

// ListWorkouts 某用户的训练记录
// @Summary 训练记录列表
// @Tags 训练
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=pagination.Paged[model.Workout]}
// @Router /api/v1/users/{user_id}/workouts [get]
func (h *Handler) ListWorkouts(c *gin.Context) {
	page, ok := h.bindPage(c)
	if !ok {
		return
	}
	list, err := h.svc.Workouts.ListByUser(c.Request.Context(), c.Param("user_id"), h.caller(c), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// DeleteWorkout 删除自己的训练记录
// @Summary 删除训练记录
// @Tags 训练
// @Produce json
// @Security BearerAuth
// @Param id path string true "训练ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/workouts/{id} [delete]
func (h *Handler) DeleteWorkout(c *gin.Context) {
	if err := h.svc.Workouts.Delete(c.Request.Context(), c.Param("id"), h.caller(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
