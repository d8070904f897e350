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

// SocialController handles likes and comments on notes and notices
type SocialController struct {
	likes    services.LikeService
	comments services.CommentService
}

// NewSocialController creates a new SocialController
func NewSocialController(likes services.LikeService, comments services.CommentService) *SocialController {
	return &SocialController{likes: likes, comments: comments}
}

func (c *SocialController) toggle(ctx *gin.Context, kind models.TargetKind) {
	result, err := c.likes.Toggle(ctx.Request.Context(), middleware.CurrentUser(ctx), kind, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.LikeToggleResponse{
		Success: true,
		Action:  result.Action,
		Count:   result.Count,
	})
}

// ToggleNoteLike godoc
// @Summary Like or unlike a note
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} dto.LikeToggleResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /notes/{id}/likes [post]
func (c *SocialController) ToggleNoteLike(ctx *gin.Context) {
	c.toggle(ctx, models.TargetNote)
}

// ToggleNoticeLike godoc
// @Summary Like or unlike a notice
// @Tags social
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 200 {object} dto.LikeToggleResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /notices/{id}/likes [post]
func (c *SocialController) ToggleNoticeLike(ctx *gin.Context) {
	c.toggle(ctx, models.TargetNotice)
}

func (c *SocialController) listComments(ctx *gin.Context, kind models.TargetKind) {
	page, size := helpers.ParsePaginationParams(ctx)
	comments, total, err := c.comments.List(ctx.Request.Context(), middleware.CurrentUser(ctx), kind, ctx.Param("id"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.CommentListResponse{
		Comments:   comments,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}

func (c *SocialController) createComment(ctx *gin.Context, kind models.TargetKind) {
	var req dto.CreateCommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	comment, err := c.comments.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), kind, ctx.Param("id"), req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(comment))
}

// ListNoteComments godoc
// @Summary List comments on a note
// @Tags social
// @Produce json
// @Param id path string true "Note ID"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.CommentListResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /notes/{id}/comments [get]
func (c *SocialController) ListNoteComments(ctx *gin.Context) {
	c.listComments(ctx, models.TargetNote)
}

// CreateNoteComment godoc
// @Summary Comment on a note
// @Tags social
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Param request body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=models.Comment}
// @Failure 404 {object} dto.ErrorResponse
// @Router /notes/{id}/comments [post]
func (c *SocialController) CreateNoteComment(ctx *gin.Context) {
	c.createComment(ctx, models.TargetNote)
}

// ListNoticeComments godoc
// @Summary List comments on a notice
// @Tags social
// @Produce json
// @Param id path string true "Notice ID"
// @Success 200 {object} dto.APIResponse{data=dto.CommentListResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /notices/{id}/comments [get]
func (c *SocialController) ListNoticeComments(ctx *gin.Context) {
	c.listComments(ctx, models.TargetNotice)
}

// CreateNoticeComment godoc
// @Summary Comment on a notice
// @Tags social
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Param request body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=models.Comment}
// @Failure 404 {object} dto.ErrorResponse
// @Router /notices/{id}/comments [post]
func (c *SocialController) CreateNoticeComment(ctx *gin.Context) {
	c.createComment(ctx, models.TargetNotice)
}

// DeleteComment godoc
// @Summary Delete a comment
// @Description The comment author or an admin may delete it
// @Tags social
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /comments/{id} [delete]
func (c *SocialController) DeleteComment(ctx *gin.Context) {
	if err := c.comments.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
