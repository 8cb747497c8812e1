package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orkestre/orkestre-api/internal/middleware"
	"github.com/orkestre/orkestre-api/internal/models"
	"github.com/orkestre/orkestre-api/internal/service"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
	"github.com/orkestre/orkestre-api/pkg/response"
)

// ServiceHandler manages the bookable service catalog.
type ServiceHandler struct {
	catalog *service.CatalogService
}

// NewServiceHandler creates a new handler.
func NewServiceHandler(catalog *service.CatalogService) *ServiceHandler {
	return &ServiceHandler{catalog: catalog}
}

// ListPublic godoc
// @Summary Active services
// @Description Public list of active services for the booking page
// @Tags Services
// @Produce json
// @Param id path int true "Establishment ID"
// @Success 200 {object} response.Envelope
// @Router /establishments/{id}/services [get]
func (h *ServiceHandler) ListPublic(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	services, err := h.catalog.ListPublic(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, services, nil)
}

// ListAll godoc
// @Summary Full catalog
// @Description Owner view of the catalog, deactivated services included
// @Tags Services
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Success 200 {object} response.Envelope
// @Router /establishments/{id}/services/all [get]
func (h *ServiceHandler) ListAll(c *gin.Context) {
	est, ok := middleware.CurrentEstablishment(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	services, err := h.catalog.ListAll(c.Request.Context(), est.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, services, nil)
}

// Get godoc
// @Summary Service details
// @Tags Services
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param serviceId path int true "Service ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /establishments/{id}/services/{serviceId} [get]
func (h *ServiceHandler) Get(c *gin.Context) {
	est, ok := middleware.CurrentEstablishment(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	serviceID, err := pathID(c, "serviceId")
	if err != nil {
		response.Error(c, err)
		return
	}

	svc, err := h.catalog.Get(c.Request.Context(), est.ID, serviceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, svc, nil)
}

// Create godoc
// @Summary Add a service
// @Tags Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param payload body models.CreateServiceRequest true "Service payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /establishments/{id}/services [post]
func (h *ServiceHandler) Create(c *gin.Context) {
	est, ok := middleware.CurrentEstablishment(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid service payload"))
		return
	}

	svc, err := h.catalog.Create(c.Request.Context(), est.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, svc)
}

// Update godoc
// @Summary Edit a service
// @Tags Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param serviceId path int true "Service ID"
// @Param payload body models.UpdateServiceRequest true "Service payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /establishments/{id}/services/{serviceId} [put]
func (h *ServiceHandler) Update(c *gin.Context) {
	est, ok := middleware.CurrentEstablishment(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	serviceID, err := pathID(c, "serviceId")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid service payload"))
		return
	}

	svc, err := h.catalog.Update(c.Request.Context(), est.ID, serviceID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, svc, nil)
}

// Delete godoc
// @Summary Deactivate a service
// @Description Soft delete: the service stops being offered but keeps its
// @Description references from past appointments
// @Tags Services
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param serviceId path int true "Service ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /establishments/{id}/services/{serviceId} [delete]
func (h *ServiceHandler) Delete(c *gin.Context) {
	est, ok := middleware.CurrentEstablishment(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	serviceID, err := pathID(c, "serviceId")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.catalog.Deactivate(c.Request.Context(), est.ID, serviceID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
