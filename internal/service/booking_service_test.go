package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orkestre/orkestre-api/internal/models"
	"github.com/orkestre/orkestre-api/internal/repository"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
)

func newBooking(ests *mockEstablishmentRepo, svcs *mockServiceRepo, appts *mockAppointmentRepo, cache *CacheService) *BookingService {
	if cache == nil {
		cache = NewCacheService(nil, nil, time.Minute, nil, false)
	}
	s := NewBookingService(ests, svcs, appts, cache, nil, nil, nil, nil, "UTC")
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func validBookingRequest() models.CreateAppointmentRequest {
	return models.CreateAppointmentRequest{
		StartTime:     "2025-06-02T09:30:00Z",
		ServiceID:     1,
		CustomerName:  "Maria Silva",
		CustomerPhone: "+5511999999999",
	}
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newBooking(ests, svcs, appts, nil)

	appt, err := s.Book(context.Background(), 1, validBookingRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC), appt.StartTime.UTC())
	assert.Equal(t, time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), appt.EndTime.UTC())
	require.NotNil(t, appts.created)
	assert.Equal(t, int64(1), appts.created.ServiceID)
}

func TestBookInvalidatesAvailabilityCache(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	cacheRepo := &mockCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	s := newBooking(ests, svcs, appts, cache)

	_, err := s.Book(context.Background(), 1, validBookingRequest())
	require.NoError(t, err)
	require.Len(t, cacheRepo.patterns, 1)
	assert.Equal(t, "availability:1:*:2025-06-02", cacheRepo.patterns[0])
}

func TestBookSlotTakenMapsToSlotUnavailable(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	appts.createErr = repository.ErrSlotTaken
	s := newBooking(ests, svcs, appts, nil)

	_, err := s.Book(context.Background(), 1, validBookingRequest())
	require.Error(t, err)
	e := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, e.Code)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Status, e.Status)
}

func TestBookRejectsOffGridStart(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newBooking(ests, svcs, appts, nil)

	req := validBookingRequest()
	req.StartTime = "2025-06-02T09:10:00Z"
	_, err := s.Book(context.Background(), 1, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErrors.FromError(err).Code)
	assert.Nil(t, appts.created)
}

func TestBookRejectsOutsideWorkingHours(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newBooking(ests, svcs, appts, nil)

	req := validBookingRequest()
	req.StartTime = "2025-06-02T14:00:00Z"
	_, err := s.Book(context.Background(), 1, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErrors.FromError(err).Code)
}

func TestBookRejectsPastStart(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newBooking(ests, svcs, appts, nil)

	req := validBookingRequest()
	req.StartTime = "2025-05-26T09:30:00Z"
	_, err := s.Book(context.Background(), 1, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookRejectsInactiveService(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	svc := svcs.services[1]
	svc.IsActive = false
	svcs.services[1] = svc
	s := newBooking(ests, svcs, appts, nil)

	_, err := s.Book(context.Background(), 1, validBookingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrServiceInactive.Code, appErrors.FromError(err).Code)
}

func TestBookRejectsMissingCustomerName(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	s := newBooking(ests, svcs, appts, nil)

	req := validBookingRequest()
	req.CustomerName = ""
	_, err := s.Book(context.Background(), 1, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookRejectsUnconfiguredEstablishment(t *testing.T) {
	ests, svcs, appts := bookingFixtures(nil)
	s := newBooking(ests, svcs, appts, nil)

	_, err := s.Book(context.Background(), 1, validBookingRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidConfiguration.Code, appErrors.FromError(err).Code)
}

func pendingAppointment() models.Appointment {
	return models.Appointment{
		ID: 5, EstablishmentID: 1, ServiceID: 1,
		StartTime: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		Status:    models.StatusPending,
	}
}

func TestUpdateStatusAllowedTransition(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	appts.appointments = map[int64]models.Appointment{5: pendingAppointment()}
	s := newBooking(ests, svcs, appts, nil)

	appt, err := s.UpdateStatus(context.Background(), 1, 5, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, appt.Status)
	assert.Equal(t, models.StatusConfirmed, appts.statuses[5])
}

func TestUpdateStatusInvalidatesCacheWhenEstablishmentReloadFails(t *testing.T) {
	_, svcs, appts := bookingFixtures(mondayMorningConfig())
	ests := &mockEstablishmentRepo{}
	appts.appointments = map[int64]models.Appointment{5: pendingAppointment()}
	cacheRepo := &mockCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	s := newBooking(ests, svcs, appts, cache)

	// Cancelling frees the slot; even when the establishment cannot be
	// reloaded for its timezone, the cached list for the UTC day must go.
	appt, err := s.UpdateStatus(context.Background(), 1, 5, models.StatusCancelledByEstablishment)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelledByEstablishment, appt.Status)
	require.Len(t, cacheRepo.patterns, 1)
	assert.Equal(t, "availability:1:*:2025-06-02", cacheRepo.patterns[0])
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	done := pendingAppointment()
	done.Status = models.StatusCompleted
	appts.appointments = map[int64]models.Appointment{5: done}
	s := newBooking(ests, svcs, appts, nil)

	_, err := s.UpdateStatus(context.Background(), 1, 5, models.StatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	appts.appointments = map[int64]models.Appointment{5: pendingAppointment()}
	s := newBooking(ests, svcs, appts, nil)

	_, err := s.UpdateStatus(context.Background(), 1, 5, "something_else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusForeignAppointment(t *testing.T) {
	ests, svcs, appts := bookingFixtures(mondayMorningConfig())
	foreign := pendingAppointment()
	foreign.EstablishmentID = 9
	appts.appointments = map[int64]models.Appointment{5: foreign}
	s := newBooking(ests, svcs, appts, nil)

	_, err := s.UpdateStatus(context.Background(), 1, 5, models.StatusConfirmed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
