package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/scolaris/scolaris-api/internal/models"
	"github.com/scolaris/scolaris-api/internal/service"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
	"github.com/scolaris/scolaris-api/pkg/response"
)

// PalierHandler exposes palier endpoints.
type PalierHandler struct {
	paliers *service.PalierService
}

// NewPalierHandler constructs PalierHandler.
func NewPalierHandler(paliers *service.PalierService) *PalierHandler {
	return &PalierHandler{paliers: paliers}
}

// List godoc
// @Summary List paliers
// @Tags Paliers
// @Produce json
// @Param sessionId query string false "Filter by session"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /paliers [get]
func (h *PalierHandler) List(c *gin.Context) {
	var filter models.PalierFilter
	filter.SessionID = c.Query("sessionId")
	filter.Status = models.PalierStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	paliers, pagination, err := h.paliers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paliers, pagination)
}

// ListBySession godoc
// @Summary List paliers of a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/paliers [get]
func (h *PalierHandler) ListBySession(c *gin.Context) {
	paliers, err := h.paliers.ListBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paliers, nil)
}

// Get godoc
// @Summary Get palier by ID
// @Tags Paliers
// @Produce json
// @Param id path string true "Palier ID"
// @Success 200 {object} response.Envelope
// @Router /paliers/{id} [get]
func (h *PalierHandler) Get(c *gin.Context) {
	palier, err := h.paliers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, palier, nil)
}

// Create godoc
// @Summary Create palier
// @Description Create a palier inside its session. The palier must fit within
// @Description the session dates and must not overlap any sibling palier.
// @Tags Paliers
// @Accept json
// @Produce json
// @Param payload body service.CreatePalierRequest true "Palier payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /paliers [post]
func (h *PalierHandler) Create(c *gin.Context) {
	var req service.CreatePalierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	palier, err := h.paliers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, palier)
}

// Update godoc
// @Summary Update palier
// @Tags Paliers
// @Accept json
// @Produce json
// @Param id path string true "Palier ID"
// @Param payload body service.UpdatePalierRequest true "Palier payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /paliers/{id} [put]
func (h *PalierHandler) Update(c *gin.Context) {
	var req service.UpdatePalierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	palier, err := h.paliers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, palier, nil)
}

// Delete godoc
// @Summary Delete palier
// @Tags Paliers
// @Produce json
// @Param id path string true "Palier ID"
// @Success 204 {object} response.Envelope
// @Router /paliers/{id} [delete]
func (h *PalierHandler) Delete(c *gin.Context) {
	if err := h.paliers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
