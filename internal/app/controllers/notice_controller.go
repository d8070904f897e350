package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/models/dto"
	"github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/middleware"
	"github.com/notesphere/notesphere/internal/pkg/helpers"
)

// NoticeController handles announcements and user feedback
type NoticeController struct {
	notices  services.NoticeService
	feedback services.FeedbackService
}

// NewNoticeController creates a new NoticeController
func NewNoticeController(notices services.NoticeService, feedback services.FeedbackService) *NoticeController {
	return &NoticeController{notices: notices, feedback: feedback}
}

func (c *NoticeController) list(ctx *gin.Context, includeDrafts bool) {
	page, size := helpers.ParsePaginationParams(ctx)
	notices, total, err := c.notices.List(ctx.Request.Context(), middleware.CurrentUser(ctx), includeDrafts, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NoticeListResponse{
		Notices:    notices,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}

// ListNotices godoc
// @Summary List published notices
// @Tags notices
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.NoticeListResponse}
// @Router /notices [get]
func (c *NoticeController) ListNotices(ctx *gin.Context) {
	c.list(ctx, false)
}

// ListAllNotices godoc
// @Summary List notices including drafts
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.NoticeListResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/notices [get]
func (c *NoticeController) ListAllNotices(ctx *gin.Context) {
	c.list(ctx, true)
}

// GetNotice godoc
// @Summary Get a notice
// @Tags notices
// @Produce json
// @Param id path string true "Notice ID"
// @Success 200 {object} dto.APIResponse{data=models.Notice}
// @Failure 404 {object} dto.ErrorResponse
// @Router /notices/{id} [get]
func (c *NoticeController) GetNotice(ctx *gin.Context) {
	notice, err := c.notices.Get(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(notice))
}

// CreateNotice godoc
// @Summary Create a notice
// @Tags notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.NoticeRequest true "Notice"
// @Success 201 {object} dto.APIResponse{data=models.Notice}
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/notices [post]
func (c *NoticeController) CreateNotice(ctx *gin.Context) {
	var req dto.NoticeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	notice, err := c.notices.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), &models.Notice{
		Title:       req.Title,
		Content:     req.Content,
		IsPublished: req.Published,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(notice))
}

// UpdateNotice godoc
// @Summary Update a notice
// @Tags notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Param request body dto.NoticeRequest true "Notice"
// @Success 200 {object} dto.APIResponse{data=models.Notice}
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/notices/{id} [put]
func (c *NoticeController) UpdateNotice(ctx *gin.Context) {
	var req dto.NoticeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	notice, err := c.notices.Update(ctx.Request.Context(), middleware.CurrentUser(ctx), &models.Notice{
		ID:          ctx.Param("id"),
		Title:       req.Title,
		Content:     req.Content,
		IsPublished: req.Published,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(notice))
}

// PublishNotice godoc
// @Summary Publish or unpublish a notice
// @Tags notices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Param request body dto.PublishNoticeRequest true "Visibility"
// @Success 200 {object} dto.APIResponse{data=models.Notice}
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/notices/{id}/publish [post]
func (c *NoticeController) PublishNotice(ctx *gin.Context) {
	var req dto.PublishNoticeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	notice, err := c.notices.SetPublished(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"), *req.Published)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(notice))
}

// DeleteNotice godoc
// @Summary Delete a notice
// @Tags notices
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/notices/{id} [delete]
func (c *NoticeController) DeleteNotice(ctx *gin.Context) {
	if err := c.notices.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SubmitFeedback godoc
// @Summary Send feedback to the admins
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateFeedbackRequest true "Feedback"
// @Success 201 {object} dto.APIResponse{data=models.Feedback}
// @Failure 400 {object} dto.ErrorResponse
// @Router /feedback [post]
func (c *NoticeController) SubmitFeedback(ctx *gin.Context) {
	var req dto.CreateFeedbackRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	f, err := c.feedback.Submit(ctx.Request.Context(), middleware.CurrentUser(ctx), req.Message, models.FeedbackCategory(req.Category))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(f))
}

// ListFeedback godoc
// @Summary List feedback, open items first
// @Tags feedback
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.FeedbackListResponse}
// @Router /admin/feedback [get]
func (c *NoticeController) ListFeedback(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	items, total, err := c.feedback.List(ctx.Request.Context(), middleware.CurrentUser(ctx), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FeedbackListResponse{
		Feedback:   items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}

// ResolveFeedback godoc
// @Summary Mark feedback as handled
// @Tags feedback
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/feedback/{id}/resolve [post]
func (c *NoticeController) ResolveFeedback(ctx *gin.Context) {
	if err := c.feedback.Resolve(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
