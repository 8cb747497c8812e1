package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/orkestre/orkestre-api/internal/models"
	"github.com/orkestre/orkestre-api/internal/repository"
	"github.com/orkestre/orkestre-api/internal/schedule"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
)

type appointmentStore interface {
	FindByID(ctx context.Context, id int64) (*models.Appointment, error)
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
	CreateIfSlotFree(ctx context.Context, appt *models.Appointment) error
	UpdateStatus(ctx context.Context, id int64, status models.AppointmentStatus) error
}

// BookingService owns the appointment write path: validation of the
// requested start against the establishment's calendar, the race-free
// insert, and the owner-side status transitions.
type BookingService struct {
	establishments establishmentReader
	services       serviceReader
	appointments   appointmentStore
	cache          *CacheService
	metrics        *MetricsService
	notifications  *NotificationService
	validator      *validator.Validate
	logger         *zap.Logger

	defaultTimezone string
	now             func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(
	establishments establishmentReader,
	services serviceReader,
	appointments appointmentStore,
	cache *CacheService,
	metrics *MetricsService,
	notifications *NotificationService,
	validate *validator.Validate,
	logger *zap.Logger,
	defaultTimezone string,
) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &BookingService{
		establishments:  establishments,
		services:        services,
		appointments:    appointments,
		cache:           cache,
		metrics:         metrics,
		notifications:   notifications,
		validator:       validate,
		logger:          logger,
		defaultTimezone: defaultTimezone,
		now:             time.Now,
	}
}

// Book creates a pending appointment for the requested start time. The start
// must land on a slot the establishment's calendar produces for that day;
// conflicts with existing occupied appointments surface as SlotUnavailable
// regardless of what the availability cache said moments earlier.
func (s *BookingService) Book(ctx context.Context, establishmentID int64, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking request")
	}

	est, svc, err := s.loadBookableService(ctx, establishmentID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if est.WorkingHoursConfig == nil || est.WorkingHoursConfig.AppointmentIntervalMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "establishment has no working hours configured")
	}

	loc := establishmentLocation(est, s.defaultTimezone, s.logger)
	start, err := parseStartTime(req.StartTime, loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be an ISO-8601 timestamp")
	}
	if !start.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be in the future")
	}

	duration := time.Duration(svc.DurationMinutes) * time.Minute
	if err := s.checkSlotAlignment(est, start, duration); err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		EstablishmentID: est.ID,
		ServiceID:       svc.ID,
		StartTime:       start,
		EndTime:         start.Add(duration),
		Status:          models.StatusPending,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		NotesByCustomer: req.NotesByCustomer,
	}

	if err := s.appointments.CreateIfSlotFree(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			if s.metrics != nil {
				s.metrics.RecordBookingConflict()
			}
			return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}

	if s.metrics != nil {
		s.metrics.RecordBookingCreated()
	}
	s.invalidateAvailability(ctx, est.ID, start.In(loc))
	s.notifications.Dispatch(NotificationBookingCreated, bookingNotification(appt, svc.Name))

	s.logger.Info("appointment created",
		zap.Int64("appointment_id", appt.ID),
		zap.Int64("establishment_id", est.ID),
		zap.Int64("service_id", svc.ID),
		zap.Time("start_time", appt.StartTime),
	)
	return appt, nil
}

// Get loads an appointment belonging to the establishment.
func (s *BookingService) Get(ctx context.Context, establishmentID, appointmentID int64) (*models.Appointment, error) {
	appt, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	if appt.EstablishmentID != establishmentID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
	}
	return appt, nil
}

// List returns the establishment's agenda with optional filters.
func (s *BookingService) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "unknown appointment status")
	}
	appts, total, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return appts, total, nil
}

// UpdateStatus applies an owner-driven status transition.
func (s *BookingService) UpdateStatus(ctx context.Context, establishmentID, appointmentID int64, status models.AppointmentStatus) (*models.Appointment, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown appointment status")
	}

	appt, err := s.Get(ctx, establishmentID, appointmentID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(appt.Status, status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move appointment from "+string(appt.Status)+" to "+string(status))
	}

	if err := s.appointments.UpdateStatus(ctx, appointmentID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment status")
	}
	appt.Status = status

	est, estErr := s.establishments.FindByID(ctx, establishmentID)
	if estErr == nil {
		loc := establishmentLocation(est, s.defaultTimezone, s.logger)
		s.invalidateAvailability(ctx, establishmentID, appt.StartTime.In(loc))
	} else {
		// A freed slot must not stay hidden until the TTL; fall back to the
		// UTC day when the establishment cannot be reloaded.
		s.logger.Warn("invalidating availability by UTC day, establishment reload failed",
			zap.Int64("establishment_id", establishmentID),
			zap.Error(estErr),
		)
		s.invalidateAvailability(ctx, establishmentID, appt.StartTime.UTC())
	}
	s.notifications.Dispatch(NotificationStatusChanged, bookingNotification(appt, ""))

	s.logger.Info("appointment status updated",
		zap.Int64("appointment_id", appointmentID),
		zap.String("status", string(status)),
	)
	return appt, nil
}

// checkSlotAlignment verifies that the start time matches one of the slots
// the calendar yields for that day, so bookings cannot land outside working
// hours or off the interval grid.
func (s *BookingService) checkSlotAlignment(est *models.Establishment, start time.Time, duration time.Duration) error {
	loc := start.Location()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	intervals, err := schedule.OpenIntervals(est.WorkingHoursConfig, day, loc)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidConfiguration.Code, appErrors.ErrInvalidConfiguration.Status, "working hours configuration is invalid")
	}

	step := time.Duration(est.WorkingHoursConfig.AppointmentIntervalMinutes) * time.Minute
	for _, candidate := range schedule.CandidateSlots(intervals, duration, step) {
		if candidate.Equal(start) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrSlotUnavailable, "requested start time is not a bookable slot")
}

func (s *BookingService) loadBookableService(ctx context.Context, establishmentID, serviceID int64) (*models.Establishment, *models.Service, error) {
	est, err := s.establishments.FindByID(ctx, establishmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "establishment not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load establishment")
	}

	svc, err := s.services.FindByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrServiceInactive, "service is inactive or does not exist")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load service")
	}
	if svc.EstablishmentID != est.ID || !svc.IsActive {
		return nil, nil, appErrors.Clone(appErrors.ErrServiceInactive, "service is inactive or does not exist")
	}
	return est, svc, nil
}

func (s *BookingService) invalidateAvailability(ctx context.Context, establishmentID int64, localStart time.Time) {
	pattern := availabilityInvalidationPattern(establishmentID, localStart.Format(DateLayout))
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Debug("availability cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// parseStartTime accepts RFC 3339 timestamps, with or without an explicit
// offset. Offset-less values are interpreted in the establishment's timezone.
func parseStartTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", value, loc)
}

func bookingNotification(appt *models.Appointment, serviceName string) BookingNotification {
	n := BookingNotification{
		AppointmentID:   appt.ID,
		EstablishmentID: appt.EstablishmentID,
		ServiceName:     serviceName,
		StartTime:       appt.StartTime.Format(time.RFC3339),
		Status:          appt.Status,
		CustomerName:    appt.CustomerName,
		CustomerPhone:   appt.CustomerPhone,
	}
	if appt.CustomerEmail != nil {
		n.CustomerEmail = *appt.CustomerEmail
	}
	return n
}
