package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/service"
	"github.com/d60-Lab/fitsocial/pkg/response"
)

type reactionRequest struct {
	ParentType string `json:"parentType" form:"parentType" binding:"required,parentkind=reactable"`
	ParentID   string `json:"parentId" form:"parentId" binding:"required"`
}

func (r reactionRequest) parent() model.ParentRef {
	return model.ParentRef{Type: model.ParentType(r.ParentType), ID: r.ParentID}
}

type toggleResponse struct {
	Liked   bool `json:"liked"`
	Changed bool `json:"changed"`
}

type reactionSummary struct {
	Count int64 `json:"count"`
	Liked bool  `json:"liked"`
}

// ToggleReaction 点赞/取消点赞
// @Summary 切换点赞
// @Description 并发插入冲突时返回 liked=true, changed=false
// @Tags 互动
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reactionRequest true "父实体"
// @Success 200 {object} response.Response{data=toggleResponse}
// @Failure 400 {object} response.Response
// @Router /api/v1/reactions/toggle [post]
func (h *Handler) ToggleReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	liked, err := h.svc.Reactions.Toggle(c.Request.Context(), h.caller(c), req.parent())
	switch {
	case err == nil:
		response.Success(c, toggleResponse{Liked: liked, Changed: true})
	case errors.Is(err, service.ErrReactionRace):
		response.Success(c, toggleResponse{Liked: true, Changed: false})
	default:
		response.Error(c, err)
	}
}

// GetReactions 查询点赞数与当前用户是否已点赞
// @Summary 点赞汇总
// @Tags 互动
// @Produce json
// @Security BearerAuth
// @Param parentType query string true "WORKOUT | ROUTINE | COMMENT"
// @Param parentId query string true "父实体ID"
// @Success 200 {object} response.Response{data=reactionSummary}
// @Router /api/v1/reactions [get]
func (h *Handler) GetReactions(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	count, err := h.svc.Reactions.Count(ctx, req.parent())
	if err != nil {
		response.Error(c, err)
		return
	}
	liked, err := h.svc.Reactions.IsReactedBy(ctx, h.caller(c), req.parent())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, reactionSummary{Count: count, Liked: liked})
}
