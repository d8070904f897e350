package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/models/dto"
	"github.com/notesphere/notesphere/internal/app/repositories"
	"github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/middleware"
	"github.com/notesphere/notesphere/internal/pkg/helpers"
)

// NoteController handles note submission, browsing and downloads
type NoteController struct {
	notes       services.NoteService
	rejectedTTL time.Duration
}

// NewNoteController creates a new NoteController
func NewNoteController(notes services.NoteService, rejectedTTL time.Duration) *NoteController {
	return &NoteController{notes: notes, rejectedTTL: rejectedTTL}
}

func listOptions(ctx *gin.Context) services.NoteListOptions {
	page, size := helpers.ParsePaginationParams(ctx)
	return services.NoteListOptions{
		Query: ctx.Query("q"),
		Sort:  repositories.ParseNoteSort(ctx.Query("sort")),
		Page:  page,
		Size:  size,
	}
}

// CreateNote godoc
// @Summary Submit a note
// @Description Registers an uploaded file as a note. New notes are PENDING until an admin approves them.
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateNoteRequest true "Note"
// @Success 201 {object} dto.APIResponse{data=dto.NoteResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Subject not found"
// @Router /notes [post]
func (c *NoteController) CreateNote(ctx *gin.Context) {
	var req dto.CreateNoteRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	note, err := c.notes.Create(ctx.Request.Context(), middleware.CurrentUser(ctx), &models.Note{
		Title:       req.Title,
		Content:     req.Content,
		Type:        models.NoteType(req.Type),
		FileURL:     req.FileURL,
		DriveFileID: helpers.NullableString(req.DriveFileID),
		SubjectID:   req.SubjectID,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.NewNoteResponse(note, c.rejectedTTL)))
}

// GetNote godoc
// @Summary Get a note
// @Description Public notes are visible to everyone, others only to their author and admins
// @Tags notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} dto.APIResponse{data=dto.NoteResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /notes/{id} [get]
func (c *NoteController) GetNote(ctx *gin.Context) {
	note, err := c.notes.Get(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewNoteResponse(note, c.rejectedTTL)))
}

// ListSubjectNotes godoc
// @Summary List the public notes of a subject
// @Tags notes
// @Produce json
// @Param id path string true "Subject ID"
// @Param q query string false "Title search"
// @Param sort query string false "newest, oldest, popular, downloads or title"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.NoteListResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /subjects/{id}/notes [get]
func (c *NoteController) ListSubjectNotes(ctx *gin.Context) {
	opts := listOptions(ctx)
	notes, total, err := c.notes.ListBySubject(ctx.Request.Context(), ctx.Param("id"), opts)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NoteListResponse{
		Notes:      dto.NewNoteResponses(notes, c.rejectedTTL),
		Pagination: helpers.NewPaginationInfo(total, opts.Page, opts.Size),
	}))
}

// ListMyNotes godoc
// @Summary List the caller's notes in every state
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.NoteListResponse}
// @Failure 401 {object} dto.ErrorResponse
// @Router /me/notes [get]
func (c *NoteController) ListMyNotes(ctx *gin.Context) {
	opts := listOptions(ctx)
	notes, total, err := c.notes.ListMine(ctx.Request.Context(), middleware.CurrentUser(ctx), opts)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NoteListResponse{
		Notes:      dto.NewNoteResponses(notes, c.rejectedTTL),
		Pagination: helpers.NewPaginationInfo(total, opts.Page, opts.Size),
	}))
}

// DeleteNote godoc
// @Summary Delete a note
// @Description The author or an admin may delete a note. The remote file is removed best-effort.
// @Tags notes
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /notes/{id} [delete]
func (c *NoteController) DeleteNote(ctx *gin.Context) {
	if err := c.notes.Delete(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// DownloadFile godoc
// @Summary Download a note's file
// @Description Counts the download and redirects to the storage provider
// @Tags notes
// @Param id path string true "Note ID"
// @Success 302
// @Failure 404 {object} dto.ErrorResponse
// @Router /notes/{id}/download-file [get]
func (c *NoteController) DownloadFile(ctx *gin.Context) {
	target, err := c.notes.DownloadURL(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, target)
}
