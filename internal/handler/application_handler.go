package handler

import (
	"errors"
	"net/http"

	"campus-backend/internal/middleware"
	"campus-backend/internal/model"
	"campus-backend/internal/service"
	"campus-backend/internal/workflow"
	"campus-backend/pkg/pagination"
	"campus-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	appService service.ApplicationService
}

func NewApplicationHandler(appService service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{appService: appService}
}

func (h *ApplicationHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyUser := middleware.RequireRole(model.RoleStudent, model.RoleTeacher, model.RoleDean, model.RoleAdmin)
	approvers := middleware.RequireRole(model.RoleTeacher, model.RoleDean, model.RoleAdmin)

	apps := router.Group("/api/applications")
	{
		apps.POST("", anyUser, h.Submit)
		apps.GET("", anyUser, h.List)
		apps.GET("/inbox", approvers, h.Inbox)
		apps.GET("/:id", anyUser, h.Get)
		apps.PUT("/:id/approve", approvers, h.Approve)
		apps.PUT("/:id/reject", approvers, h.Reject)
		apps.PUT("/:id/return", approvers, h.Return)
		apps.PUT("/:id/cancel", anyUser, h.Cancel)
	}
}

// statusForWorkflowError maps workflow sentinel errors onto HTTP statuses
func statusForWorkflowError(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidState), errors.Is(err, workflow.ErrAlreadyDecided):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrConfigurationMissing):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// Submit creates a new application and routes it to the level-1 approver
// @Summary      Submit application
// @Description  Submits a new application of the given kind and assigns the first approver
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitApplicationDTO  true  "Application Payload"
// @Success      201      {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req service.SubmitApplicationDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	app, err := h.appService.Submit(c.Request.Context(), userIDStr, req)
	if err != nil {
		status := statusForWorkflowError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, app))
}

// List returns applications, optionally filtered by status and kind.
// With ?mine=true only the caller's own submissions are returned.
// @Summary      List applications
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        kind    query     string  false  "Filter by kind"
// @Param        mine    query     bool    false  "Only the caller's submissions"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	filter := service.ApplicationListFilter{
		Status:   c.Query("status"),
		Kind:     c.Query("kind"),
		Mine:     c.Query("mine") == "true",
		CallerID: userIDStr,
		Page:     params.Page,
		Limit:    params.Limit,
	}

	// Students only ever see their own applications
	if role, _ := c.Get("userRole"); role == model.RoleStudent {
		filter.Mine = true
	}

	apps, total, err := h.appService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   apps,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// Inbox returns pending applications currently waiting on the caller
// @Summary      Pending inbox
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/applications/inbox [get]
func (h *ApplicationHandler) Inbox(c *gin.Context) {
	params := pagination.Parse(c)
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	filter := service.ApplicationListFilter{
		AssignedTo: true,
		CallerID:   userIDStr,
		Kind:       c.Query("kind"),
		Page:       params.Page,
		Limit:      params.Limit,
	}

	apps, total, err := h.appService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   apps,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// Get returns one application with its full approval history
// @Summary      Get application
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Application ID"
// @Success      200  {object}  response.Response{data=service.ApplicationDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	id := c.Param("id")

	detail, err := h.appService.Get(c.Request.Context(), id)
	if err != nil {
		status := statusForWorkflowError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// Approve records an approval at the application's current level
// @Summary      Approve application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true   "Application ID"
// @Param        payload  body      service.DecideDTO  false  "Optional comment"
// @Success      200      {object}  response.Response{data=service.ApplicationResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/applications/{id}/approve [put]
func (h *ApplicationHandler) Approve(c *gin.Context) {
	h.decide(c, model.ActionApprove)
}

// Reject terminally rejects the application
// @Summary      Reject application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Application ID"
// @Param        payload  body      service.DecideDTO  true  "Rejection comment"
// @Success      200      {object}  response.Response{data=service.ApplicationResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/applications/{id}/reject [put]
func (h *ApplicationHandler) Reject(c *gin.Context) {
	h.decide(c, model.ActionReject)
}

// Return sends the application back to level 1 for rework
// @Summary      Return application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "Application ID"
// @Param        payload  body      service.DecideDTO  true  "Return comment"
// @Success      200      {object}  response.Response{data=service.ApplicationResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/applications/{id}/return [put]
func (h *ApplicationHandler) Return(c *gin.Context) {
	h.decide(c, model.ActionReturn)
}

func (h *ApplicationHandler) decide(c *gin.Context, action string) {
	id := c.Param("id")
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	var req service.DecideDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow empty body — comment is optional
		req.Comment = ""
	}

	app, err := h.appService.Decide(c.Request.Context(), id, userIDStr, action, req.Comment)
	if err != nil {
		status := statusForWorkflowError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

// Cancel withdraws a pending application (submitter only)
// @Summary      Cancel application
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Application ID"
// @Success      200  {object}  response.Response{data=service.ApplicationResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/applications/{id}/cancel [put]
func (h *ApplicationHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	app, err := h.appService.Cancel(c.Request.Context(), id, userIDStr)
	if err != nil {
		status := statusForWorkflowError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}
