package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notesphere/notesphere/internal/app/models/dto"
	"github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/middleware"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
)

// DriveController handles direct-to-provider uploads and account linking
type DriveController struct {
	uploads services.UploadService
}

// NewDriveController creates a new DriveController
func NewDriveController(uploads services.UploadService) *DriveController {
	return &DriveController{uploads: uploads}
}

// CreateUploadSession godoc
// @Summary Open a resumable upload session
// @Description The client uploads the file bytes straight to the returned URL, then submits the note with the fileId
// @Tags drive
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UploadSessionRequest true "File metadata"
// @Success 200 {object} dto.UploadSessionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse "Storage credentials missing"
// @Router /drive/upload-session [post]
func (c *DriveController) CreateUploadSession(ctx *gin.Context) {
	var req dto.UploadSessionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.uploads.CreateUploadSession(ctx.Request.Context(), middleware.CurrentUser(ctx), req.Name, req.MimeType)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.UploadSessionResponse{
		UploadURL:      session.UploadURL,
		FileID:         session.FileID,
		WebViewLink:    session.WebViewLink,
		WebContentLink: session.WebContentLink,
	})
}

// Connect godoc
// @Summary Start linking a drive account
// @Tags drive
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DriveConnectResponse}
// @Failure 400 {object} dto.ErrorResponse "Provider has no consent flow"
// @Router /drive/connect [get]
func (c *DriveController) Connect(ctx *gin.Context) {
	authURL, err := c.uploads.ConnectURL(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.DriveConnectResponse{AuthURL: authURL}))
}

// Callback godoc
// @Summary OAuth redirect target
// @Description Exchanges the authorization code and redirects back to the web app
// @Tags drive
// @Param code query string true "Authorization code"
// @Param state query string true "Signed state"
// @Success 302
// @Failure 401 {object} dto.ErrorResponse "Invalid state"
// @Router /drive/callback [get]
func (c *DriveController) Callback(ctx *gin.Context) {
	code, state := ctx.Query("code"), ctx.Query("state")
	if code == "" || state == "" {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("code and state are required"))
		return
	}

	redirect, err := c.uploads.Callback(ctx.Request.Context(), code, state)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, redirect)
}

// Status godoc
// @Summary Report whether the caller linked a drive account
// @Tags drive
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DriveStatusResponse}
// @Router /drive/status [get]
func (c *DriveController) Status(ctx *gin.Context) {
	status, err := c.uploads.Status(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	resp := dto.DriveStatusResponse{Connected: status.Connected}
	if status.Account != nil {
		resp.Expiry = status.Account.Expiry
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// Disconnect godoc
// @Summary Unlink the caller's drive account
// @Tags drive
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "No account linked"
// @Router /drive/connection [delete]
func (c *DriveController) Disconnect(ctx *gin.Context) {
	if err := c.uploads.Disconnect(ctx.Request.Context(), middleware.CurrentUser(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
