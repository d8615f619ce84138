package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fitsocial/pkg/response"
)

type createRoutineRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
}

// CreateRoutine 新建训练计划草稿
// @Summary 新建训练计划
// @Tags 训练
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createRoutineRequest true "训练计划"
// @Success 201 {object} response.Response{data=model.Routine}
// @Router /api/v1/routines [post]
func (h *Handler) CreateRoutine(c *gin.Context) {
	var req createRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	r, err := h.svc.Routines.Create(c.Request.Context(), h.caller(c), req.Title, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, r)
}

// PublishRoutine 发布训练计划，同时产生 ROUTINE_PUBLISHED 动态
// @Summary 发布训练计划
// @Tags 训练
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Success 200 {object} response.Response{data=model.Routine}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/routines/{id}/publish [post]
func (h *Handler) PublishRoutine(c *gin.Context) {
	r, err := h.svc.Routines.Publish(c.Request.Context(), c.Param("id"), h.caller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, r)
}

// GetRoutine 查询训练计划，他人的草稿返回 404
// @Summary 训练计划详情
// @Tags 训练
// @Produce json
// @Security BearerAuth
// @Param id path string true "计划ID"
// @Success 200 {object} response.Response{data=model.Routine}
// @Failure 404 {object} response.Response
// @Router /api/v1/routines/{id} [get]
func (h *Handler) GetRoutine(c *gin.Context) {
	r, err := h.svc.Routines.Get(c.Request.Context(), c.Param("id"), h.caller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, r)
}
