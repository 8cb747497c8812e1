package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orkestre/orkestre-api/internal/middleware"
	"github.com/orkestre/orkestre-api/internal/models"
	"github.com/orkestre/orkestre-api/internal/service"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
	"github.com/orkestre/orkestre-api/pkg/response"
)

// AppointmentHandler serves the public booking flow and the owner agenda.
// The customer-facing endpoints keep their original JSON contract: the slot
// list is a bare array and errors are `{"detail": ...}` objects.
type AppointmentHandler struct {
	availability *service.AvailabilityService
	booking      *service.BookingService
	exports      *service.ExportService
}

// NewAppointmentHandler creates a new handler.
func NewAppointmentHandler(availability *service.AvailabilityService, booking *service.BookingService, exports *service.ExportService) *AppointmentHandler {
	return &AppointmentHandler{availability: availability, booking: booking, exports: exports}
}

// AvailableSlots godoc
// @Summary Available slots
// @Description Bookable start times for a service on a date, as a bare JSON array of HH:MM:SS strings
// @Tags Appointments
// @Produce json
// @Param id path int true "Establishment ID"
// @Param serviceId path int true "Service ID"
// @Param appointment_date query string true "Date (YYYY-MM-DD)"
// @Success 200 {array} string
// @Failure 400 {object} map[string]string
// @Router /establishments/{id}/services/{serviceId}/available-slots [get]
func (h *AppointmentHandler) AvailableSlots(c *gin.Context) {
	establishmentID, err := pathID(c, "id")
	if err != nil {
		response.Detail(c, err)
		return
	}
	serviceID, err := pathID(c, "serviceId")
	if err != nil {
		response.Detail(c, err)
		return
	}
	date := c.Query("appointment_date")
	if date == "" {
		response.Detail(c, appErrors.Clone(appErrors.ErrValidation, "appointment_date is required"))
		return
	}

	slots, err := h.availability.AvailableSlots(c.Request.Context(), establishmentID, serviceID, date)
	if err != nil {
		response.Detail(c, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	c.JSON(http.StatusOK, slots)
}

// Create godoc
// @Summary Book an appointment
// @Description Create a pending appointment; 409 when the slot was taken meanwhile
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path int true "Establishment ID"
// @Param payload body models.CreateAppointmentRequest true "Booking payload"
// @Success 201 {object} models.Appointment
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /establishments/{id}/appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	establishmentID, err := pathID(c, "id")
	if err != nil {
		response.Detail(c, err)
		return
	}

	var req models.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, appErrors.Clone(appErrors.ErrValidation, "invalid booking payload"))
		return
	}

	appt, err := h.booking.Book(c.Request.Context(), establishmentID, req)
	if err != nil {
		response.Detail(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// List godoc
// @Summary Agenda
// @Description Owner agenda with optional date and status filters
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /establishments/{id}/appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	est, ok := middleware.CurrentEstablishment(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.AppointmentFilter{
		EstablishmentID: est.ID,
		Status:          models.AppointmentStatus(c.Query("status")),
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.Parse(service.DateLayout, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		filter.Date = &day
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	appts, total, err := h.booking.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appts, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// UpdateStatus godoc
// @Summary Transition appointment status
// @Description Owner-driven move through the appointment state machine
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param appointmentId path int true "Appointment ID"
// @Param payload body models.UpdateAppointmentStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /establishments/{id}/appointments/{appointmentId}/status [patch]
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	est, ok := middleware.CurrentEstablishment(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	appointmentID, err := pathID(c, "appointmentId")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	appt, err := h.booking.UpdateStatus(c.Request.Context(), est.ID, appointmentID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// Export godoc
// @Summary Export day agenda
// @Description Download the day's appointments as CSV or PDF
// @Tags Appointments
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "Establishment ID"
// @Param appointment_date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /establishments/{id}/appointments/export [get]
func (h *AppointmentHandler) Export(c *gin.Context) {
	est, ok := middleware.CurrentEstablishment(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	date := c.Query("appointment_date")
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.exports.DayAgenda(c.Request.Context(), est.ID, date, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
