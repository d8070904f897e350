package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/models/dto"
	"github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/middleware"
	"github.com/notesphere/notesphere/internal/pkg/helpers"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// ModerationController exposes the admin review workflow and the expiry sweep
type ModerationController struct {
	moderation services.ModerationService
	sweeper    services.SweeperService
	now        func() time.Time
}

// NewModerationController creates a new ModerationController
func NewModerationController(moderation services.ModerationService, sweeper services.SweeperService) *ModerationController {
	return &ModerationController{moderation: moderation, sweeper: sweeper, now: time.Now}
}

// ApproveNote godoc
// @Summary Approve a pending note
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} dto.APIResponse{data=dto.NoteResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Note is not pending"
// @Router /admin/notes/{id}/approve [post]
func (c *ModerationController) ApproveNote(ctx *gin.Context) {
	note, err := c.moderation.Approve(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"))
	c.respondNote(ctx, note, err)
}

// RejectNote godoc
// @Summary Reject a pending note
// @Description The note is archived and removed once it has been rejected for longer than the retention window
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} dto.APIResponse{data=dto.NoteResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Note is not pending"
// @Router /admin/notes/{id}/reject [post]
func (c *ModerationController) RejectNote(ctx *gin.Context) {
	note, err := c.moderation.Reject(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"))
	c.respondNote(ctx, note, err)
}

// Unreject godoc
// @Summary Restore or publish a rejected note
// @Description restore moves the note back to PENDING, publish makes it PUBLIC
// @Tags moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UnrejectRequest true "Target note and action"
// @Success 200 {object} dto.APIResponse{data=dto.NoteResponse}
// @Failure 400 {object} dto.ErrorResponse "Unknown action"
// @Failure 404 {object} dto.ErrorResponse "Note missing or not rejected"
// @Router /admin/unreject [post]
func (c *ModerationController) Unreject(ctx *gin.Context) {
	var req dto.UnrejectRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	note, err := c.moderation.Unreject(ctx.Request.Context(), middleware.CurrentUser(ctx), req.NoteID, models.ModerationAction(req.Action))
	c.respondNote(ctx, note, err)
}

func (c *ModerationController) respondNote(ctx *gin.Context, note *models.Note, err error) {
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewNoteResponse(note, c.moderation.RejectedTTL())))
}

// ListPending godoc
// @Summary List notes awaiting review, oldest first
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.NoteListResponse}
// @Router /admin/notes/pending [get]
func (c *ModerationController) ListPending(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	notes, total, err := c.moderation.ListPending(ctx.Request.Context(), middleware.CurrentUser(ctx), page, size)
	c.respondNotes(ctx, notes, total, page, size, err)
}

// ListRejected godoc
// @Summary List rejected notes with their expiry time
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.NoteListResponse}
// @Router /admin/notes/rejected [get]
func (c *ModerationController) ListRejected(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	notes, total, err := c.moderation.ListRejected(ctx.Request.Context(), middleware.CurrentUser(ctx), page, size)
	c.respondNotes(ctx, notes, total, page, size, err)
}

func (c *ModerationController) respondNotes(ctx *gin.Context, notes []*models.Note, total int64, page, size int, err error) {
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NoteListResponse{
		Notes:      dto.NewNoteResponses(notes, c.moderation.RejectedTTL()),
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}

// ListArchive godoc
// @Summary List archived rejected notes
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ArchiveListResponse}
// @Router /admin/rejected-notes [get]
func (c *ModerationController) ListArchive(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	archived, total, err := c.moderation.ListArchive(ctx.Request.Context(), middleware.CurrentUser(ctx), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ArchiveListResponse{
		Notes:      archived,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}

// ProcessRejected godoc
// @Summary Archive and delete expired rejected notes
// @Description Callable by admins or by a scheduler presenting X-Scheduler-Token. Per-note failures are reported without failing the run.
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param X-Scheduler-Token header string false "Scheduler token"
// @Success 200 {object} dto.SweepResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Sweep already in progress"
// @Router /notes/process-rejected [post]
func (c *ModerationController) ProcessRejected(ctx *gin.Context) {
	result, err := c.sweeper.Sweep(ctx.Request.Context(), c.now().UTC())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	logger.Ctx(ctx.Request.Context()).Info().
		Bool("scheduler", middleware.IsScheduler(ctx)).
		Int("processed", result.ProcessedCount).
		Int("errors", len(result.Errors)).
		Msg("Rejected note sweep finished")

	ctx.JSON(http.StatusOK, dto.SweepResponse{
		Success:        true,
		ProcessedCount: result.ProcessedCount,
		Errors:         result.Errors,
		Warnings:       result.Warnings,
	})
}
