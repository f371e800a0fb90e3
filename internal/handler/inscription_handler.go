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

// InscriptionHandler exposes enrollment endpoints.
type InscriptionHandler struct {
	inscriptions *service.InscriptionService
}

// NewInscriptionHandler constructs InscriptionHandler.
func NewInscriptionHandler(inscriptions *service.InscriptionService) *InscriptionHandler {
	return &InscriptionHandler{inscriptions: inscriptions}
}

// List godoc
// @Summary List inscriptions
// @Tags Inscriptions
// @Produce json
// @Param studentUserId query string false "Filter by student user"
// @Param classSessionId query string false "Filter by class session"
// @Param status query string false "Filter by status"
// @Param reinscription query bool false "Filter by reinscription flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inscriptions [get]
func (h *InscriptionHandler) List(c *gin.Context) {
	var filter models.InscriptionFilter
	filter.StudentUserID = c.Query("studentUserId")
	filter.ClassSessionID = c.Query("classSessionId")
	filter.Status = models.InscriptionStatus(strings.ToUpper(c.Query("status")))
	if raw := c.Query("reinscription"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			filter.Reinscription = &value
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	inscriptions, pagination, err := h.inscriptions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inscriptions, pagination)
}

// Get godoc
// @Summary Get inscription by ID
// @Tags Inscriptions
// @Produce json
// @Param id path string true "Inscription ID"
// @Success 200 {object} response.Envelope
// @Router /inscriptions/{id} [get]
func (h *InscriptionHandler) Get(c *gin.Context) {
	detail, err := h.inscriptions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Enroll a student into a class session
// @Description Rejects the enrollment when the class session has no free seat.
// @Description The reinscription flag is derived from the student's history.
// @Tags Inscriptions
// @Accept json
// @Produce json
// @Param payload body service.CreateInscriptionRequest true "Inscription payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inscriptions [post]
func (h *InscriptionHandler) Create(c *gin.Context) {
	var req service.CreateInscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ins, err := h.inscriptions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ins)
}

// Update godoc
// @Summary Update inscription
// @Tags Inscriptions
// @Accept json
// @Produce json
// @Param id path string true "Inscription ID"
// @Param payload body service.UpdateInscriptionRequest true "Inscription payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inscriptions/{id} [put]
func (h *InscriptionHandler) Update(c *gin.Context) {
	var req service.UpdateInscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ins, err := h.inscriptions.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ins, nil)
}

// UpdateStatus godoc
// @Summary Change inscription status
// @Tags Inscriptions
// @Accept json
// @Produce json
// @Param id path string true "Inscription ID"
// @Param payload body map[string]string true "New status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inscriptions/{id}/status [put]
func (h *InscriptionHandler) UpdateStatus(c *gin.Context) {
	var payload struct {
		Status models.InscriptionStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}
	ins, err := h.inscriptions.UpdateStatus(c.Request.Context(), c.Param("id"), payload.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ins, nil)
}

// Delete godoc
// @Summary Delete inscription
// @Tags Inscriptions
// @Produce json
// @Param id path string true "Inscription ID"
// @Success 204 {object} response.Envelope
// @Router /inscriptions/{id} [delete]
func (h *InscriptionHandler) Delete(c *gin.Context) {
	if err := h.inscriptions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
