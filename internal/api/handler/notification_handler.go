package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fitsocial/pkg/response"
)

// ListNotifications 未读通知
// @Summary 未读通知列表
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=pagination.Paged[model.Notification]}
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	page, ok := h.bindPage(c)
	if !ok {
		return
	}
	list, err := h.svc.Notifications.ListUnread(c.Request.Context(), h.caller(c), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// CountNotifications 未读数
// @Summary 未读通知数
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/notifications/unread-count [get]
func (h *Handler) CountNotifications(c *gin.Context) {
	cnt, err := h.svc.Notifications.CountUnread(c.Request.Context(), h.caller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": cnt})
}

// MarkNotificationRead 标记单条已读
// @Summary 标记已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param id path string true "通知ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.svc.Notifications.MarkRead(c.Request.Context(), c.Param("id"), h.caller(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAllNotificationsRead 全部标记已读
// @Summary 全部已读
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/notifications/read-all [post]
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.svc.Notifications.MarkAllRead(c.Request.Context(), h.caller(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}
