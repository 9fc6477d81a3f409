package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pianoteacher/studio-api/internal/models"
	"github.com/pianoteacher/studio-api/internal/service"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
	"github.com/pianoteacher/studio-api/pkg/response"
)

// LessonHandler exposes lesson booking and suggestion endpoints.
type LessonHandler struct {
	lessons     *service.LessonService
	suggestions *service.SuggestionService
	metrics     *service.MetricsService
}

// NewLessonHandler constructs LessonHandler.
func NewLessonHandler(lessons *service.LessonService, suggestions *service.SuggestionService, metrics *service.MetricsService) *LessonHandler {
	return &LessonHandler{lessons: lessons, suggestions: suggestions, metrics: metrics}
}

// List godoc
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param location query string false "Filter by location substring"
// @Param status query string false "Filter by derived status: SCHEDULED, IN_PROGRESS or COMPLETED"
// @Param days query int false "Shortcut: upcoming lessons within the next N days"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	var filter models.LessonFilter
	filter.StudentID = c.Query("studentId")
	filter.Location = strings.TrimSpace(c.Query("location"))
	filter.Status = c.Query("status")
	if from, ok := parseTimeQuery(c, "from"); ok {
		filter.From = &from
	}
	if to, ok := parseTimeQuery(c, "to"); ok {
		filter.To = &to
	}
	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "days must be a positive integer"))
			return
		}
		now := time.Now()
		to := now.AddDate(0, 0, days)
		filter.From = &now
		filter.To = &to
		if filter.Status == "" {
			filter.Status = models.LessonStatusScheduled
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortOrder = c.Query("order")

	lessons, pagination, err := h.lessons.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, pagination)
}

// Get godoc
// @Summary Get lesson detail
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.lessons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Create godoc
// @Summary Book a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req service.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.lessons.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Update godoc
// @Summary Update lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.UpdateLessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req service.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.lessons.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Reschedule godoc
// @Summary Reschedule lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.RescheduleLessonRequest true "New interval"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/{id}/reschedule [put]
func (h *LessonHandler) Reschedule(c *gin.Context) {
	var req service.RescheduleLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.lessons.Reschedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// UpdateNotes godoc
// @Summary Update lesson notes
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/notes [put]
func (h *LessonHandler) UpdateNotes(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lesson, err := h.lessons.UpdateNotes(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Delete godoc
// @Summary Delete lesson
// @Tags Lessons
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	if err := h.lessons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Suggestions godoc
// @Summary Suggest open lesson slots
// @Tags Lessons
// @Produce json
// @Param studentId query string true "Student ID"
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Param duration query int true "Lesson duration in minutes (30-240)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lessons/suggestions [get]
func (h *LessonHandler) Suggestions(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	start, ok := parseTimeQuery(c, "start")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidWindow, "start must be a valid RFC3339 timestamp"))
		return
	}
	end, ok := parseTimeQuery(c, "end")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidWindow, "end must be a valid RFC3339 timestamp"))
		return
	}
	duration, err := strconv.Atoi(c.Query("duration"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidDuration, ""))
		return
	}

	suggestions, err := h.suggestions.Suggest(c.Request.Context(), service.SuggestionRequest{
		StudentID:       studentID,
		WindowStart:     start,
		WindowEnd:       end,
		DurationMinutes: duration,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveSuggestionRun(len(suggestions))
	response.JSON(c, http.StatusOK, suggestions, nil, map[string]interface{}{"count": len(suggestions)})
}

// Stats godoc
// @Summary Lesson count aggregates
// @Tags Lessons
// @Produce json
// @Param by query string false "Grouping: student or location"
// @Success 200 {object} response.Envelope
// @Router /lessons/stats [get]
func (h *LessonHandler) Stats(c *gin.Context) {
	var (
		counts []models.LessonCount
		err    error
	)
	switch c.DefaultQuery("by", "student") {
	case "location":
		counts, err = h.lessons.CountByLocation(c.Request.Context())
	default:
		counts, err = h.lessons.CountByStudent(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

func parseTimeQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
