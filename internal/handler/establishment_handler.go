package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orkestre/orkestre-api/internal/middleware"
	"github.com/orkestre/orkestre-api/internal/models"
	"github.com/orkestre/orkestre-api/internal/service"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
	"github.com/orkestre/orkestre-api/pkg/response"
)

// EstablishmentHandler serves establishment details and working hours
// management.
type EstablishmentHandler struct {
	service *service.EstablishmentService
}

// NewEstablishmentHandler creates a new handler.
func NewEstablishmentHandler(svc *service.EstablishmentService) *EstablishmentHandler {
	return &EstablishmentHandler{service: svc}
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

// Get godoc
// @Summary Establishment details
// @Description Public establishment details for the booking page
// @Tags Establishments
// @Produce json
// @Param id path int true "Establishment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /establishments/{id} [get]
func (h *EstablishmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	est, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, est, nil)
}

// UpdateWorkingHours godoc
// @Summary Update working hours
// @Description Replace the establishment's weekly calendar
// @Tags Establishments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param payload body models.WorkingHoursConfig true "Weekly calendar"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /establishments/{id}/working-hours [put]
func (h *EstablishmentHandler) UpdateWorkingHours(c *gin.Context) {
	est, ok := middleware.CurrentEstablishment(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var cfg models.WorkingHoursConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid working hours payload"))
		return
	}

	updated, err := h.service.UpdateWorkingHours(c.Request.Context(), est.ID, &cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}
