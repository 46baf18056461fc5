package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/services"
)

// CreateReportRequest represents the request body for filing a report
type CreateReportRequest struct {
	ClientID    string   `json:"client_id" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Priority    string   `json:"priority"`
	Photos      []string `json:"photos"`
	Videos      []string `json:"videos"`
}

// ReportController handles service reports
type ReportController struct {
	reports  *services.ReportService
	degraded bool
}

// NewReportController creates a new report controller
func NewReportController(reports *services.ReportService, degraded bool) *ReportController {
	return &ReportController{reports: reports, degraded: degraded}
}

// ListReports handles GET /api/reports - newest first, employees see their own
func (ctrl *ReportController) ListReports(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	reports, err := ctrl.reports.List(c.Request.Context(), actor)
	respondList[models.ServiceReport](c, reports, err, ctrl.degraded)
}

// GetReport handles GET /api/reports/:id
func (ctrl *ReportController) GetReport(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	report, err := ctrl.reports.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// CreateReport handles POST /api/reports
func (ctrl *ReportController) CreateReport(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	report, err := ctrl.reports.Create(c.Request.Context(), actor, services.NewReportInput{
		ClientID:    req.ClientID,
		Description: req.Description,
		Priority:    req.Priority,
		Photos:      req.Photos,
		Videos:      req.Videos,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    report,
	})
}

// UpdateReport handles PUT /api/reports/:id - partial update, absent or null fields are left alone
func (ctrl *ReportController) UpdateReport(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var update services.ReportUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondInvalidBody(c, err)
		return
	}

	report, err := ctrl.reports.Update(c.Request.Context(), actor, c.Param("id"), update)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// DeleteReport handles DELETE /api/reports/:id
func (ctrl *ReportController) DeleteReport(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	if err := ctrl.reports.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Report deleted successfully",
	})
}
