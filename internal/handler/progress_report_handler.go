package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pianoteacher/studio-api/internal/models"
	"github.com/pianoteacher/studio-api/internal/service"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
	"github.com/pianoteacher/studio-api/pkg/response"
)

// ProgressReportHandler exposes progress report endpoints.
type ProgressReportHandler struct {
	reports *service.ProgressReportService
}

// NewProgressReportHandler constructs ProgressReportHandler.
func NewProgressReportHandler(reports *service.ProgressReportService) *ProgressReportHandler {
	return &ProgressReportHandler{reports: reports}
}

// List godoc
// @Summary List progress reports
// @Tags Reports
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param type query string false "Report type"
// @Param period query string false "Report period"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ProgressReportHandler) List(c *gin.Context) {
	var filter models.ProgressReportFilter
	filter.StudentID = c.Query("studentId")
	filter.ReportType = c.Query("type")
	filter.ReportPeriod = c.Query("period")
	if from, ok := parseTimeQuery(c, "from"); ok {
		filter.From = &from
	}
	if to, ok := parseTimeQuery(c, "to"); ok {
		filter.To = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	reports, pagination, err := h.reports.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Get godoc
// @Summary Get report detail
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ProgressReportHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Latest godoc
// @Summary Latest report for a student
// @Tags Reports
// @Produce json
// @Param studentId query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /reports/latest [get]
func (h *ProgressReportHandler) Latest(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	report, err := h.reports.Latest(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Create godoc
// @Summary Create progress report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body service.ProgressReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Router /reports [post]
func (h *ProgressReportHandler) Create(c *gin.Context) {
	var req service.ProgressReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.reports.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Update godoc
// @Summary Update progress report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body service.ProgressReportRequest true "Report payload"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [put]
func (h *ProgressReportHandler) Update(c *gin.Context) {
	var req service.ProgressReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.reports.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Delete godoc
// @Summary Delete progress report
// @Tags Reports
// @Param id path string true "Report ID"
// @Success 204
// @Router /reports/{id} [delete]
func (h *ProgressReportHandler) Delete(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
