package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pianoteacher/studio-api/internal/models"
	"github.com/pianoteacher/studio-api/internal/service"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
	"github.com/pianoteacher/studio-api/pkg/response"
)

// LessonContentHandler exposes practice material endpoints.
type LessonContentHandler struct {
	content *service.LessonContentService
}

// NewLessonContentHandler constructs LessonContentHandler.
func NewLessonContentHandler(content *service.LessonContentService) *LessonContentHandler {
	return &LessonContentHandler{content: content}
}

// List godoc
// @Summary List lesson content
// @Tags Content
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param type query string false "Content type"
// @Param difficulty query int false "Difficulty 1-10"
// @Param completed query bool false "Completion state"
// @Param search query string false "Match title or composer"
// @Success 200 {object} response.Envelope
// @Router /content [get]
func (h *LessonContentHandler) List(c *gin.Context) {
	var filter models.LessonContentFilter
	filter.StudentID = c.Query("studentId")
	filter.ContentType = c.Query("type")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if raw := c.Query("difficulty"); raw != "" {
		if difficulty, err := strconv.Atoi(raw); err == nil {
			filter.Difficulty = &difficulty
		}
	}
	if raw := c.Query("completed"); raw != "" {
		if completed, err := strconv.ParseBool(raw); err == nil {
			filter.Completed = &completed
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	items, pagination, err := h.content.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get content detail
// @Tags Content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /content/{id} [get]
func (h *LessonContentHandler) Get(c *gin.Context) {
	item, err := h.content.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Assign content to a student
// @Tags Content
// @Accept json
// @Produce json
// @Param payload body service.CreateLessonContentRequest true "Content payload"
// @Success 201 {object} response.Envelope
// @Router /content [post]
func (h *LessonContentHandler) Create(c *gin.Context) {
	var req service.CreateLessonContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.content.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update content
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Content ID"
// @Param payload body service.UpdateLessonContentRequest true "Content payload"
// @Success 200 {object} response.Envelope
// @Router /content/{id} [put]
func (h *LessonContentHandler) Update(c *gin.Context) {
	var req service.UpdateLessonContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.content.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Complete godoc
// @Summary Mark content completed
// @Tags Content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /content/{id}/complete [put]
func (h *LessonContentHandler) Complete(c *gin.Context) {
	item, err := h.content.MarkCompleted(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Incomplete godoc
// @Summary Mark content incomplete
// @Tags Content
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Envelope
// @Router /content/{id}/incomplete [put]
func (h *LessonContentHandler) Incomplete(c *gin.Context) {
	item, err := h.content.MarkIncomplete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete content
// @Tags Content
// @Param id path string true "Content ID"
// @Success 204
// @Router /content/{id} [delete]
func (h *LessonContentHandler) Delete(c *gin.Context) {
	if err := h.content.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stats godoc
// @Summary Content completion stats for a student
// @Tags Content
// @Produce json
// @Param studentId query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /content/stats [get]
func (h *LessonContentHandler) Stats(c *gin.Context) {
	studentID := c.Query("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	stats, err := h.content.Stats(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
