package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fitsocial/internal/service"
	"github.com/d60-Lab/fitsocial/pkg/response"
)

// Follow 关注用户
// @Summary 关注用户
// @Description 重复关注返回 changed=false
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "被关注者ID"
// @Success 200 {object} response.Response{data=changedResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{user_id}/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	err := h.svc.Graph.Follow(c.Request.Context(), h.caller(c), c.Param("user_id"))
	switch {
	case err == nil:
		response.Success(c, changedResponse{Changed: true})
	case errors.Is(err, service.ErrAlreadyFollowing):
		response.Success(c, changedResponse{Changed: false})
	default:
		response.Error(c, err)
	}
}

// Unfollow 取消关注
// @Summary 取消关注
// @Description 未关注时返回 changed=false
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "被关注者ID"
// @Success 200 {object} response.Response{data=changedResponse}
// @Failure 400 {object} response.Response
// @Router /api/v1/users/{user_id}/follow [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	err := h.svc.Graph.Unfollow(c.Request.Context(), h.caller(c), c.Param("user_id"))
	switch {
	case err == nil:
		response.Success(c, changedResponse{Changed: true})
	case errors.Is(err, service.ErrNotFollowing):
		response.Success(c, changedResponse{Changed: false})
	default:
		response.Error(c, err)
	}
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=pagination.Paged[string]}
// @Router /api/v1/users/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, ok := h.bindPage(c)
	if !ok {
		return
	}
	list, err := h.svc.Graph.ListFollowing(c.Request.Context(), c.Param("user_id"), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表（来自粉丝表）
// @Tags 关系链
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=pagination.Paged[string]}
// @Router /api/v1/users/{user_id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	page, ok := h.bindPage(c)
	if !ok {
		return
	}
	list, err := h.svc.Graph.ListFollowers(c.Request.Context(), c.Param("user_id"), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
