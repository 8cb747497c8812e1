package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/orkestre/orkestre-api/internal/models"
	"github.com/orkestre/orkestre-api/internal/schedule"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
)

type establishmentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Establishment, error)
}

type serviceReader interface {
	FindByID(ctx context.Context, id int64) (*models.Service, error)
}

type occupiedAppointmentReader interface {
	ListOccupiedBetween(ctx context.Context, establishmentID int64, from, to time.Time) ([]models.Appointment, error)
}

// AvailabilityService computes the bookable slot list for a service on a
// date: working-hours calendar, candidate generation, then subtraction of
// occupied appointments. Responses are cached briefly; the booking write
// path never trusts them.
type AvailabilityService struct {
	establishments establishmentReader
	services       serviceReader
	appointments   occupiedAppointmentReader
	cache          *CacheService
	logger         *zap.Logger

	defaultTimezone string
	now             func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(
	establishments establishmentReader,
	services serviceReader,
	appointments occupiedAppointmentReader,
	cache *CacheService,
	logger *zap.Logger,
	defaultTimezone string,
) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &AvailabilityService{
		establishments:  establishments,
		services:        services,
		appointments:    appointments,
		cache:           cache,
		logger:          logger,
		defaultTimezone: defaultTimezone,
		now:             time.Now,
	}
}

// SlotTimeLayout is the wire format of slot strings consumed by the booking page.
const SlotTimeLayout = "15:04:05"

// DateLayout is the appointment_date query parameter format.
const DateLayout = "2006-01-02"

// AvailableSlots returns the ascending "HH:MM:SS" start times still bookable
// for the service on the given date, in the establishment's local timezone.
// Past dates and inactive weekdays yield an empty list, not an error.
func (s *AvailabilityService) AvailableSlots(ctx context.Context, establishmentID, serviceID int64, date string) ([]string, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "appointment_date must be YYYY-MM-DD")
	}

	est, svc, err := s.loadBookableService(ctx, establishmentID, serviceID)
	if err != nil {
		return nil, err
	}
	if est.WorkingHoursConfig == nil || est.WorkingHoursConfig.AppointmentIntervalMinutes <= 0 {
		return []string{}, nil
	}

	loc := s.location(est)
	now := s.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	localDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	if localDay.Before(today) {
		return []string{}, nil
	}

	// Cached lists for today can predate the current clock; re-apply the
	// past filter on hits so elapsed starts never survive the TTL.
	cacheKey := availabilityCacheKey(establishmentID, serviceID, date)
	var cached []string
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		if sameDay(localDay, now) {
			cached = pruneElapsed(cached, now)
		}
		return cached, nil
	}

	slots, err := s.computeSlots(ctx, est, svc, localDay, now)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.Format(SlotTimeLayout))
	}

	if err := s.cache.Set(ctx, cacheKey, out, 0); err != nil {
		s.logger.Debug("availability cache store failed", zap.Error(err))
	}
	return out, nil
}

// computeSlots runs the full read pipeline for a local calendar day.
func (s *AvailabilityService) computeSlots(ctx context.Context, est *models.Establishment, svc *models.Service, localDay, now time.Time) ([]time.Time, error) {
	intervals, err := schedule.OpenIntervals(est.WorkingHoursConfig, localDay, localDay.Location())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidConfiguration.Code, appErrors.ErrInvalidConfiguration.Status, "working hours configuration is invalid")
	}
	if len(intervals) == 0 {
		return nil, nil
	}

	duration := time.Duration(svc.DurationMinutes) * time.Minute
	step := time.Duration(est.WorkingHoursConfig.AppointmentIntervalMinutes) * time.Minute
	candidates := schedule.CandidateSlots(intervals, duration, step)

	if sameDay(localDay, now) {
		candidates = schedule.FilterPast(candidates, now)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	dayStart := localDay
	dayEnd := localDay.Add(24 * time.Hour)
	occupied, err := s.appointments.ListOccupiedBetween(ctx, est.ID, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}

	busy := make([]schedule.TimeInterval, 0, len(occupied))
	for _, appt := range occupied {
		busy = append(busy, schedule.TimeInterval{Start: appt.StartTime.In(localDay.Location()), End: appt.EndTime.In(localDay.Location())})
	}

	return schedule.AvailableSlots(candidates, duration, busy), nil
}

// loadBookableService resolves the establishment and an active service that
// belongs to it. Inactive or foreign services are rejected before any slot
// computation.
func (s *AvailabilityService) loadBookableService(ctx context.Context, establishmentID, serviceID int64) (*models.Establishment, *models.Service, error) {
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

func (s *AvailabilityService) location(est *models.Establishment) *time.Location {
	return establishmentLocation(est, s.defaultTimezone, s.logger)
}

// establishmentLocation resolves an establishment's timezone with a
// configured fallback. Unknown zone names degrade to UTC rather than failing
// the request.
func establishmentLocation(est *models.Establishment, fallback string, logger *zap.Logger) *time.Location {
	tz := est.Timezone
	if tz == "" {
		tz = fallback
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid establishment timezone, falling back to UTC", zap.String("timezone", tz))
		}
		return time.UTC
	}
	return loc
}

func sameDay(day, now time.Time) bool {
	return day.Year() == now.Year() && day.Month() == now.Month() && day.Day() == now.Day()
}

// pruneElapsed drops "HH:MM:SS" slot strings whose clock time on now's day
// is no longer in the future. Unparseable entries are dropped too.
func pruneElapsed(slots []string, now time.Time) []string {
	out := make([]string, 0, len(slots))
	for _, raw := range slots {
		clock, err := time.Parse(SlotTimeLayout, raw)
		if err != nil {
			continue
		}
		slot := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, now.Location())
		if slot.After(now) {
			out = append(out, raw)
		}
	}
	return out
}

func availabilityCacheKey(establishmentID, serviceID int64, date string) string {
	return fmt.Sprintf("availability:%d:%d:%s", establishmentID, serviceID, date)
}

// availabilityInvalidationPattern matches every cached slot list of an
// establishment for one date, regardless of service.
func availabilityInvalidationPattern(establishmentID int64, date string) string {
	return fmt.Sprintf("availability:%d:*:%s", establishmentID, date)
}

// establishmentInvalidationPattern matches every cached slot list of an
// establishment, used when working hours or the catalog change.
func establishmentInvalidationPattern(establishmentID int64) string {
	return fmt.Sprintf("availability:%d:*", establishmentID)
}
