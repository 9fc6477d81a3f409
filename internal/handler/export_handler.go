package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pianoteacher/studio-api/internal/models"
	"github.com/pianoteacher/studio-api/internal/service"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
	"github.com/pianoteacher/studio-api/pkg/response"
)

// ExportHandler streams CSV and PDF exports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// LessonsCSV godoc
// @Summary Export lessons as CSV
// @Tags Exports
// @Produce text/csv
// @Param studentId query string false "Filter by student"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Success 200 {string} string "CSV payload"
// @Router /exports/lessons.csv [get]
func (h *ExportHandler) LessonsCSV(c *gin.Context) {
	var filter models.LessonFilter
	filter.StudentID = c.Query("studentId")
	if from, ok := parseTimeQuery(c, "from"); ok {
		filter.From = &from
	}
	if to, ok := parseTimeQuery(c, "to"); ok {
		filter.To = &to
	}

	payload, err := h.exports.LessonsCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("lessons-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// ProgressReportsPDF godoc
// @Summary Export a student's progress reports as PDF
// @Tags Exports
// @Produce application/pdf
// @Param studentId query string true "Student ID"
// @Success 200 {string} string "PDF payload"
// @Router /exports/progress-reports.pdf [get]
func (h *ExportHandler) ProgressReportsPDF(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	payload, err := h.exports.ProgressReportsPDF(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("progress-reports-%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}
