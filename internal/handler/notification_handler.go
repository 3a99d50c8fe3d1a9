package handler

import (
	"net/http"

	"campus-backend/internal/middleware"
	"campus-backend/internal/model"
	"campus-backend/internal/service"
	"campus-backend/pkg/pagination"
	"campus-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyUser := middleware.RequireRole(model.RoleStudent, model.RoleTeacher, model.RoleDean, model.RoleAdmin)

	notifications := router.Group("/api/notifications")
	{
		notifications.GET("", anyUser, h.List)
		notifications.PUT("/:id/read", anyUser, h.MarkRead)
	}
}

// List returns notifications addressed to the caller or the caller's role
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	role, _ := c.Get("userRole")
	roleStr, _ := role.(string)

	items, total, err := h.notificationService.ListForUser(c.Request.Context(), userIDStr, roleStr, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   items,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// MarkRead flags a single notification as read
// @Summary      Mark notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Notification marked as read"))
}
