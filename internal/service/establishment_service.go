package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/orkestre/orkestre-api/internal/models"
	"github.com/orkestre/orkestre-api/internal/schedule"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
)

type establishmentStore interface {
	FindByID(ctx context.Context, id int64) (*models.Establishment, error)
	FindByOwner(ctx context.Context, ownerID int64) (*models.Establishment, error)
	UpdateWorkingHours(ctx context.Context, id int64, cfg *models.WorkingHoursConfig) error
}

// EstablishmentService exposes establishment details to the public booking
// page and lets owners manage their working hours calendar.
type EstablishmentService struct {
	establishments establishmentStore
	cache          *CacheService
	logger         *zap.Logger
}

// NewEstablishmentService constructs an EstablishmentService.
func NewEstablishmentService(establishments establishmentStore, cache *CacheService, logger *zap.Logger) *EstablishmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EstablishmentService{establishments: establishments, cache: cache, logger: logger}
}

// Get loads an establishment by id.
func (s *EstablishmentService) Get(ctx context.Context, id int64) (*models.Establishment, error) {
	est, err := s.establishments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "establishment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load establishment")
	}
	return est, nil
}

// GetByOwner loads the establishment owned by a user.
func (s *EstablishmentService) GetByOwner(ctx context.Context, ownerID int64) (*models.Establishment, error) {
	est, err := s.establishments.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "establishment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load establishment")
	}
	return est, nil
}

// UpdateWorkingHours validates and stores a new weekly calendar, then drops
// every cached slot list of the establishment since all of them may change.
func (s *EstablishmentService) UpdateWorkingHours(ctx context.Context, id int64, cfg *models.WorkingHoursConfig) (*models.Establishment, error) {
	if cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "working_hours_config is required")
	}
	if err := ValidateWorkingHours(cfg); err != nil {
		return nil, err
	}

	if err := s.establishments.UpdateWorkingHours(ctx, id, cfg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "establishment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update working hours")
	}

	if err := s.cache.Invalidate(ctx, establishmentInvalidationPattern(id)); err != nil {
		s.logger.Debug("availability cache invalidation failed", zap.Int64("establishment_id", id), zap.Error(err))
	}
	s.logger.Info("working hours updated", zap.Int64("establishment_id", id))

	return s.Get(ctx, id)
}

// ValidateWorkingHours checks the semantic constraints of a weekly calendar:
// parseable clock strings, start before end, and lunch breaks contained in
// their day window. Violations return an INVALID_CONFIGURATION error naming
// the offending day.
func ValidateWorkingHours(cfg *models.WorkingHoursConfig) error {
	if cfg.AppointmentIntervalMinutes <= 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfiguration, "appointment_interval_minutes must be positive")
	}

	for _, name := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		w := cfg.Days()[name]
		if !w.IsActive {
			continue
		}

		start, err := schedule.ParseClock(w.StartTime)
		if err != nil {
			return invalidDay(name, "start_time is not a valid time")
		}
		end, err := schedule.ParseClock(w.EndTime)
		if err != nil {
			return invalidDay(name, "end_time is not a valid time")
		}
		if !start.Before(end) {
			return invalidDay(name, "start_time must be before end_time")
		}

		if w.LunchBreakStartTime == "" && w.LunchBreakEndTime == "" {
			continue
		}
		if !w.HasLunchBreak() {
			return invalidDay(name, "lunch break requires both start and end times")
		}
		lunchStart, err := schedule.ParseClock(w.LunchBreakStartTime)
		if err != nil {
			return invalidDay(name, "lunch_break_start_time is not a valid time")
		}
		lunchEnd, err := schedule.ParseClock(w.LunchBreakEndTime)
		if err != nil {
			return invalidDay(name, "lunch_break_end_time is not a valid time")
		}
		if !lunchStart.Before(lunchEnd) {
			return invalidDay(name, "lunch break start must be before its end")
		}
		if lunchStart.Before(start) || lunchEnd.After(end) {
			return invalidDay(name, "lunch break must fall inside the working window")
		}
	}
	return nil
}

func invalidDay(day, reason string) error {
	return appErrors.Clone(appErrors.ErrInvalidConfiguration, fmt.Sprintf("%s: %s", day, reason))
}
