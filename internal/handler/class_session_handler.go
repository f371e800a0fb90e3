package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scolaris/scolaris-api/internal/models"
	"github.com/scolaris/scolaris-api/internal/service"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
	"github.com/scolaris/scolaris-api/pkg/response"
)

// ClassSessionHandler exposes class session endpoints.
type ClassSessionHandler struct {
	classSessions *service.ClassSessionService
}

// NewClassSessionHandler constructs ClassSessionHandler.
func NewClassSessionHandler(classSessions *service.ClassSessionService) *ClassSessionHandler {
	return &ClassSessionHandler{classSessions: classSessions}
}

// List godoc
// @Summary List class sessions
// @Tags ClassSessions
// @Produce json
// @Param classId query string false "Filter by class"
// @Param sessionId query string false "Filter by session"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /class-sessions [get]
func (h *ClassSessionHandler) List(c *gin.Context) {
	var filter models.ClassSessionFilter
	filter.ClassID = c.Query("classId")
	filter.SessionID = c.Query("sessionId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	items, pagination, err := h.classSessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get class session by ID
// @Tags ClassSessions
// @Produce json
// @Param id path string true "Class session ID"
// @Success 200 {object} response.Envelope
// @Router /class-sessions/{id} [get]
func (h *ClassSessionHandler) Get(c *gin.Context) {
	cs, err := h.classSessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cs, nil)
}

// Create godoc
// @Summary Open a class for a session
// @Tags ClassSessions
// @Accept json
// @Produce json
// @Param payload body service.CreateClassSessionRequest true "Class session payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-sessions [post]
func (h *ClassSessionHandler) Create(c *gin.Context) {
	var req service.CreateClassSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cs, err := h.classSessions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cs)
}

// UpdateCapacity godoc
// @Summary Update seat capacity
// @Tags ClassSessions
// @Accept json
// @Produce json
// @Param id path string true "Class session ID"
// @Param payload body service.UpdateCapacityRequest true "Capacity payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-sessions/{id}/capacity [put]
func (h *ClassSessionHandler) UpdateCapacity(c *gin.Context) {
	var req service.UpdateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cs, err := h.classSessions.UpdateCapacity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cs, nil)
}

// Occupancy godoc
// @Summary Seat occupancy for a class session
// @Tags ClassSessions
// @Produce json
// @Param id path string true "Class session ID"
// @Success 200 {object} response.Envelope
// @Router /class-sessions/{id}/occupancy [get]
func (h *ClassSessionHandler) Occupancy(c *gin.Context) {
	occ, err := h.classSessions.Occupancy(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occ, nil)
}

// SeatGrid godoc
// @Summary Seat grid for a class session
// @Tags ClassSessions
// @Produce json
// @Param id path string true "Class session ID"
// @Success 200 {object} response.Envelope
// @Router /class-sessions/{id}/seats [get]
func (h *ClassSessionHandler) SeatGrid(c *gin.Context) {
	seats, err := h.classSessions.SeatGrid(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, seats, nil)
}

// Delete godoc
// @Summary Close a class session
// @Tags ClassSessions
// @Produce json
// @Param id path string true "Class session ID"
// @Success 204 {object} response.Envelope
// @Router /class-sessions/{id} [delete]
func (h *ClassSessionHandler) Delete(c *gin.Context) {
	if err := h.classSessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
