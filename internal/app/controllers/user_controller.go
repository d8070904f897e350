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

// UserController handles user-related operations
type UserController struct {
	userService  services.UserService
	statsService services.StatsService
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService, statsService services.StatsService) *UserController {
	return &UserController{
		userService:  userService,
		statsService: statsService,
	}
}

// GetMe retrieves the current user
// @Summary Get the current user
// @Description Returns the caller's profile, synchronized from the session token on every request
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /me [get]
func (c *UserController) GetMe(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(middleware.CurrentUser(ctx)))
}

// ListUsers lists every user
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.UserListResponse}
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	users, total, err := c.userService.List(ctx.Request.Context(), middleware.CurrentUser(ctx), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.UserListResponse{
		Users:      users,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}

// UpdateRole changes a user's role
// @Summary Promote or demote a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clerkId path string true "User ID at the identity provider"
// @Param request body dto.UpdateRoleRequest true "New role"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.ErrorResponse "Admins cannot demote themselves"
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/users/{clerkId}/role [put]
func (c *UserController) UpdateRole(ctx *gin.Context) {
	var req dto.UpdateRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	user, err := c.userService.UpdateRole(ctx.Request.Context(), middleware.CurrentUser(ctx), ctx.Param("clerkId"), models.RoleType(req.Role))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(user))
}

// GetStats returns dashboard counters
// @Summary Admin dashboard counters
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.Stats}
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/stats [get]
func (c *UserController) GetStats(ctx *gin.Context) {
	stats, err := c.statsService.Get(ctx.Request.Context(), middleware.CurrentUser(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(stats))
}
