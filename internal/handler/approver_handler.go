package handler

import (
	"net/http"
	"strconv"

	"campus-backend/internal/middleware"
	"campus-backend/internal/model"
	"campus-backend/internal/service"
	"campus-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApproverHandler struct {
	approverService service.ApproverService
}

func NewApproverHandler(approverService service.ApproverService) *ApproverHandler {
	return &ApproverHandler{approverService: approverService}
}

func (h *ApproverHandler) RegisterRoutes(router *gin.RouterGroup) {
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	approvers := router.Group("/api/approvers")
	{
		approvers.GET("", middleware.RequireRole(model.RoleDean, model.RoleAdmin), h.List)
		approvers.POST("", adminOnly, h.Configure)
		approvers.DELETE("/:level/:userId", adminOnly, h.Remove)
	}

	configs := router.Group("/api/approval-configs")
	{
		configs.GET("", middleware.RequireRole(model.RoleDean, model.RoleAdmin), h.ListConfigs)
		configs.PUT("", adminOnly, h.UpdateDeadline)
	}
}

// List returns every approver pool assignment with its live pending load
// @Summary      List approver pools
// @Tags         approvers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.ApproverResponse}
// @Router       /api/approvers [get]
func (h *ApproverHandler) List(c *gin.Context) {
	result, err := h.approverService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Configure adds a user to an approval level's pool
// @Summary      Configure approver
// @Tags         approvers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ConfigureApproverDTO  true  "Approver Assignment"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/approvers [post]
func (h *ApproverHandler) Configure(c *gin.Context) {
	var req service.ConfigureApproverDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	adminID, _ := c.Get("userID")
	adminIDStr, _ := adminID.(string)

	if err := h.approverService.Configure(c.Request.Context(), adminIDStr, req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Approver configured"))
}

// Remove drops a user from an approval level's pool
// @Summary      Remove approver
// @Tags         approvers
// @Produce      json
// @Security     BearerAuth
// @Param        level   path      int     true  "Approval level"
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  response.Response
// @Failure      400     {object}  response.Response
// @Router       /api/approvers/{level}/{userId} [delete]
func (h *ApproverHandler) Remove(c *gin.Context) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil || level < 1 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid level"))
		return
	}

	adminID, _ := c.Get("userID")
	adminIDStr, _ := adminID.(string)

	if err := h.approverService.Remove(c.Request.Context(), adminIDStr, level, c.Param("userId")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Approver removed"))
}

// ListConfigs returns the per-kind deadline configuration
// @Summary      List approval configs
// @Tags         approvers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.ApprovalConfig}
// @Router       /api/approval-configs [get]
func (h *ApproverHandler) ListConfigs(c *gin.Context) {
	configs, err := h.approverService.ListConfigs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, configs))
}

// UpdateDeadline sets the decision deadline (in days) for one application kind
// @Summary      Update deadline config
// @Tags         approvers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateDeadlineDTO  true  "Deadline Config"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/approval-configs [put]
func (h *ApproverHandler) UpdateDeadline(c *gin.Context) {
	var req service.UpdateDeadlineDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	adminID, _ := c.Get("userID")
	adminIDStr, _ := adminID.(string)

	if err := h.approverService.UpdateDeadline(c.Request.Context(), adminIDStr, req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Deadline updated"))
}
