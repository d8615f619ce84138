package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fitsocial/pkg/response"
)

// GetFeed 当前用户的动态流
// @Summary 动态流
// @Description 按 createdAt、id 倒序；hasNext 表示还有下一页
// @Tags 动态
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=pagination.Slice[model.ActivityEvent]}
// @Router /api/v1/feed [get]
func (h *Handler) GetFeed(c *gin.Context) {
	page, ok := h.bindPage(c)
	if !ok {
		return
	}
	feed, err := h.svc.Feed.GetFeed(c.Request.Context(), h.caller(c), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, feed)
}

// GetActivity 查询单条动态，不可见时返回 404
// @Summary 动态详情
// @Tags 动态
// @Produce json
// @Security BearerAuth
// @Param id path string true "动态ID"
// @Success 200 {object} response.Response{data=model.ActivityEvent}
// @Failure 404 {object} response.Response
// @Router /api/v1/activities/{id} [get]
func (h *Handler) GetActivity(c *gin.Context) {
	event, err := h.svc.Feed.Get(c.Request.Context(), c.Param("id"), h.caller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, event)
}
