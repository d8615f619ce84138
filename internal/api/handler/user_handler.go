package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fitsocial/pkg/response"
)

type createUserRequest struct {
	Username    string `json:"username" binding:"required,max=64"`
	DisplayName string `json:"displayName" binding:"max=128"`
}

// CreateUser 创建用户资料
// @Summary 创建用户
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body createUserRequest true "用户资料"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 409 {object} response.Response
// @Router /api/v1/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Users.Create(c.Request.Context(), req.Username, req.DisplayName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, u)
}

// GetUser 用户资料与关注计数
// @Summary 用户详情
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Success 200 {object} response.Response{data=model.User}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{user_id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.svc.Users.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}
