package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orkestre/orkestre-api/internal/models"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
)

func mondayMorningConfig() *models.WorkingHoursConfig {
	return &models.WorkingHoursConfig{
		Monday:                     models.DayWindow{IsActive: true, StartTime: "09:00", EndTime: "11:00"},
		AppointmentIntervalMinutes: 30,
	}
}

func bookingFixtures(cfg *models.WorkingHoursConfig) (*mockEstablishmentRepo, *mockServiceRepo, *mockAppointmentRepo) {
	ests := &mockEstablishmentRepo{establishments: map[int64]models.Establishment{
		1: {ID: 1, OwnerID: 1, Name: "Studio Bela", Timezone: "UTC", WorkingHoursConfig: cfg},
	}}
	svcs := &mockServiceRepo{services: map[int64]models.Service{
		1: {ID: 1, EstablishmentID: 1, Name: "Corte", Price: 50, DurationMinutes: 30, IsActive: true},
	}}
	appts := &mockAppointmentRepo{}
	return ests, svcs, appts
}

func newAvailability(ests *mockEstablishmentRepo, svcs *mockServiceRepo, appts *mockAppointmentRepo, cache *CacheService) *AvailabilityService {
	if cache == nil {
		cache = NewCacheService(nil, nil, time.Minute, nil, false)
	}
	s := NewAvailabilityService(ests, svcs, appts, cache, nil, "UTC")
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestAvailableSlotsFullDay(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newAvailability(ests, svcs, appts, nil)

	slots, err := s.AvailableSlots(context.Background(), 1, 1, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00:00", "09:30:00", "10:00:00", "10:30:00"}, slots)
}

func TestAvailableSlotsExcludesOccupied(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	appts.appointments = map[int64]models.Appointment{
		1: {
			ID: 1, EstablishmentID: 1, ServiceID: 1,
			StartTime: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
			Status:    models.StatusPending,
		},
	}
	s := newAvailability(ests, svcs, appts, nil)

	slots, err := s.AvailableSlots(context.Background(), 1, 1, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00:00", "10:00:00", "10:30:00"}, slots)
}

func TestAvailableSlotsPastDate(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newAvailability(ests, svcs, appts, nil)

	slots, err := s.AvailableSlots(context.Background(), 1, 1, "2025-05-26")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsInactiveWeekday(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newAvailability(ests, svcs, appts, nil)

	slots, err := s.AvailableSlots(context.Background(), 1, 1, "2025-06-08")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsSameDaySkipsElapsed(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newAvailability(ests, svcs, appts, nil)
	s.now = func() time.Time { return time.Date(2025, 6, 2, 9, 45, 0, 0, time.UTC) }

	slots, err := s.AvailableSlots(context.Background(), 1, 1, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00:00", "10:30:00"}, slots)
}

func TestAvailableSlotsNoWorkingHours(t *testing.T) {
	ests, svcs, appts := bookingFixtures(nil)
	s := newAvailability(ests, svcs, appts, nil)

	slots, err := s.AvailableSlots(context.Background(), 1, 1, "2025-06-02")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsForeignService(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	svcs.services[2] = models.Service{ID: 2, EstablishmentID: 9, Name: "Other", DurationMinutes: 30, IsActive: true}
	s := newAvailability(ests, svcs, appts, nil)

	_, err := s.AvailableSlots(context.Background(), 1, 2, "2025-06-02")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrServiceInactive.Code, appErrors.FromError(err).Code)
}

func TestAvailableSlotsUnknownEstablishment(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newAvailability(ests, svcs, appts, nil)

	_, err := s.AvailableSlots(context.Background(), 99, 1, "2025-06-02")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAvailableSlotsBadDate(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newAvailability(ests, svcs, appts, nil)

	_, err := s.AvailableSlots(context.Background(), 1, 1, "02/06/2025")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailableSlotsServedFromCache(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	cacheRepo := &mockCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	s := newAvailability(ests, svcs, appts, cache)

	first, err := s.AvailableSlots(context.Background(), 1, 1, "2025-06-02")
	require.NoError(t, err)
	require.Len(t, first, 4)

	// New booking lands, but the cached list is still served until it expires
	// or is invalidated.
	appts.appointments = map[int64]models.Appointment{
		1: {
			ID: 1, EstablishmentID: 1, ServiceID: 1,
			StartTime: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
			Status:    models.StatusConfirmed,
		},
	}
	second, err := s.AvailableSlots(context.Background(), 1, 1, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAvailableSlotsCacheHitDropsElapsedToday(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	cacheRepo := &mockCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	s := newAvailability(ests, svcs, appts, cache)

	// A list cached earlier in the day still holds morning slots.
	require.NoError(t, cacheRepo.Set(context.Background(),
		availabilityCacheKey(1, 1, "2025-06-02"),
		[]string{"09:00:00", "09:30:00", "10:00:00", "10:30:00"}, time.Minute))

	// The clock has since moved to 09:45 on that same day.
	s.now = func() time.Time { return time.Date(2025, 6, 2, 9, 45, 0, 0, time.UTC) }

	slots, err := s.AvailableSlots(context.Background(), 1, 1, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00:00", "10:30:00"}, slots)
}

func TestAvailableSlotsPastDateIgnoresCachedList(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	cacheRepo := &mockCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	s := newAvailability(ests, svcs, appts, cache)

	require.NoError(t, cacheRepo.Set(context.Background(),
		availabilityCacheKey(1, 1, "2025-05-26"),
		[]string{"09:00:00"}, time.Minute))

	slots, err := s.AvailableSlots(context.Background(), 1, 1, "2025-05-26")
	require.NoError(t, err)
	assert.Empty(t, slots)
}
