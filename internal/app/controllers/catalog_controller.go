package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/models/dto"
	"github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/middleware"
)

// CatalogController handles the Year → Semester → Subject hierarchy
type CatalogController struct {
	catalog services.CatalogService
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalog services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// ListYears godoc
// @Summary Get the catalog tree
// @Description Returns every year with its semesters and subjects
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Year}
// @Failure 500 {object} dto.ErrorResponse
// @Router /years [get]
func (c *CatalogController) ListYears(ctx *gin.Context) {
	years, err := c.catalog.Tree(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(years))
}

// GetYear godoc
// @Summary Get a year
// @Tags catalog
// @Produce json
// @Param id path string true "Year ID"
// @Success 200 {object} dto.APIResponse{data=models.Year}
// @Failure 404 {object} dto.ErrorResponse
// @Router /years/{id} [get]
func (c *CatalogController) GetYear(ctx *gin.Context) {
	year, err := c.catalog.GetYear(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(year))
}

// CreateYear godoc
// @Summary Create a year
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateYearRequest true "Year"
// @Success 201 {object} dto.APIResponse{data=models.Year}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Year number already exists"
// @Router /admin/years [post]
func (c *CatalogController) CreateYear(ctx *gin.Context) {
	var req dto.CreateYearRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	year, err := c.catalog.CreateYear(ctx.Request.Context(), req.Number)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(year))
}

// DeleteYear godoc
// @Summary Delete a year
// @Description Fails with 409 while the year still has semesters
// @Tags catalog
// @Security BearerAuth
// @Param id path string true "Year ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /admin/years/{id} [delete]
func (c *CatalogController) DeleteYear(ctx *gin.Context) {
	if err := c.catalog.DeleteYear(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// CreateSemester godoc
// @Summary Create a semester
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSemesterRequest true "Semester"
// @Success 201 {object} dto.APIResponse{data=models.Semester}
// @Failure 404 {object} dto.ErrorResponse "Year not found"
// @Failure 409 {object} dto.ErrorResponse
// @Router /admin/semesters [post]
func (c *CatalogController) CreateSemester(ctx *gin.Context) {
	var req dto.CreateSemesterRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	semester, err := c.catalog.CreateSemester(ctx.Request.Context(), req.YearID, req.Number)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(semester))
}

// DeleteSemester godoc
// @Summary Delete a semester
// @Tags catalog
// @Security BearerAuth
// @Param id path string true "Semester ID"
// @Success 204
// @Failure 409 {object} dto.ErrorResponse
// @Router /admin/semesters/{id} [delete]
func (c *CatalogController) DeleteSemester(ctx *gin.Context) {
	if err := c.catalog.DeleteSemester(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ListSubjects godoc
// @Summary List the subjects of a semester
// @Tags catalog
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Subject}
// @Failure 404 {object} dto.ErrorResponse
// @Router /semesters/{id}/subjects [get]
func (c *CatalogController) ListSubjects(ctx *gin.Context) {
	subjects, err := c.catalog.ListSubjects(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(subjects))
}

// GetSubject godoc
// @Summary Get a subject
// @Tags catalog
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} dto.APIResponse{data=models.Subject}
// @Failure 404 {object} dto.ErrorResponse
// @Router /subjects/{id} [get]
func (c *CatalogController) GetSubject(ctx *gin.Context) {
	subject, err := c.catalog.GetSubject(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(subject))
}

// CreateSubject godoc
// @Summary Create a subject
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSubjectRequest true "Subject"
// @Success 201 {object} dto.APIResponse{data=models.Subject}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Code already used in the semester"
// @Router /admin/subjects [post]
func (c *CatalogController) CreateSubject(ctx *gin.Context) {
	var req dto.CreateSubjectRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	subject, err := c.catalog.CreateSubject(ctx.Request.Context(), &models.Subject{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		SemesterID:  req.SemesterID,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(subject))
}

// UpdateSubject godoc
// @Summary Update a subject
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Param request body dto.UpdateSubjectRequest true "Subject"
// @Success 200 {object} dto.APIResponse{data=models.Subject}
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /admin/subjects/{id} [put]
func (c *CatalogController) UpdateSubject(ctx *gin.Context) {
	var req dto.UpdateSubjectRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	subject, err := c.catalog.UpdateSubject(ctx.Request.Context(), &models.Subject{
		ID:          ctx.Param("id"),
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(subject))
}

// DeleteSubject godoc
// @Summary Delete a subject
// @Description Fails with 409 while notes still reference the subject
// @Tags catalog
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Success 204
// @Failure 409 {object} dto.ErrorResponse
// @Router /admin/subjects/{id} [delete]
func (c *CatalogController) DeleteSubject(ctx *gin.Context) {
	if err := c.catalog.DeleteSubject(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
