package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/pkg/response"
)

type addCommentRequest struct {
	ParentType string `json:"parentType" binding:"required,parentkind=commentable"`
	ParentID   string `json:"parentId" binding:"required"`
	Content    string `json:"content" binding:"required,max=2000"`
}

type listCommentsQuery struct {
	ParentType string `form:"parentType" binding:"required,parentkind=commentable"`
	ParentID   string `form:"parentId" binding:"required"`
}

// AddComment 发表评论
// @Summary 发表评论
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body addCommentRequest true "评论内容"
// @Success 201 {object} response.Response{data=model.Comment}
// @Failure 400 {object} response.Response
// @Router /api/v1/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	parent := model.ParentRef{Type: model.ParentType(req.ParentType), ID: req.ParentID}
	comment, err := h.svc.Comments.Add(c.Request.Context(), h.caller(c), parent, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// DeleteComment 删除自己的评论（软删除）
// @Summary 删除评论
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param id path string true "评论ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/comments/{id} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	if err := h.svc.Comments.SoftDelete(c.Request.Context(), c.Param("id"), h.caller(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ListComments 分页查询评论
// @Summary 评论列表
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param parentType query string true "WORKOUT | ROUTINE"
// @Param parentId query string true "父实体ID"
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=pagination.Paged[model.Comment]}
// @Router /api/v1/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	var q listCommentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, ok := h.bindPage(c)
	if !ok {
		return
	}
	parent := model.ParentRef{Type: model.ParentType(q.ParentType), ID: q.ParentID}
	list, err := h.svc.Comments.List(c.Request.Context(), parent, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
