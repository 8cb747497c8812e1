package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/orkestre/orkestre-api/internal/models"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
)

type mockEstablishmentRepo struct {
	establishments map[int64]models.Establishment
	updatedHours   map[int64]*models.WorkingHoursConfig
}

func (m *mockEstablishmentRepo) FindByID(ctx context.Context, id int64) (*models.Establishment, error) {
	if e, ok := m.establishments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEstablishmentRepo) FindByOwner(ctx context.Context, ownerID int64) (*models.Establishment, error) {
	for _, e := range m.establishments {
		if e.OwnerID == ownerID {
			est := e
			return &est, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEstablishmentRepo) Create(ctx context.Context, est *models.Establishment) error {
	if m.establishments == nil {
		m.establishments = make(map[int64]models.Establishment)
	}
	if est.ID == 0 {
		est.ID = int64(len(m.establishments) + 1)
	}
	m.establishments[est.ID] = *est
	return nil
}

func (m *mockEstablishmentRepo) UpdateWorkingHours(ctx context.Context, id int64, cfg *models.WorkingHoursConfig) error {
	e, ok := m.establishments[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.WorkingHoursConfig = cfg
	m.establishments[id] = e
	if m.updatedHours == nil {
		m.updatedHours = make(map[int64]*models.WorkingHoursConfig)
	}
	m.updatedHours[id] = cfg
	return nil
}

type mockServiceRepo struct {
	services map[int64]models.Service
}

func (m *mockServiceRepo) List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error) {
	var out []models.Service
	for _, s := range m.services {
		if s.EstablishmentID != filter.EstablishmentID {
			continue
		}
		if filter.ActiveOnly && !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockServiceRepo) FindByID(ctx context.Context, id int64) (*models.Service, error) {
	if s, ok := m.services[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockServiceRepo) Create(ctx context.Context, svc *models.Service) error {
	if m.services == nil {
		m.services = make(map[int64]models.Service)
	}
	if svc.ID == 0 {
		svc.ID = int64(len(m.services) + 1)
	}
	m.services[svc.ID] = *svc
	return nil
}

func (m *mockServiceRepo) Update(ctx context.Context, svc *models.Service) error {
	if _, ok := m.services[svc.ID]; !ok {
		return sql.ErrNoRows
	}
	m.services[svc.ID] = *svc
	return nil
}

func (m *mockServiceRepo) Deactivate(ctx context.Context, id int64) error {
	s, ok := m.services[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.IsActive = false
	m.services[id] = s
	return nil
}

type mockAppointmentRepo struct {
	appointments map[int64]models.Appointment
	createErr    error
	created      *models.Appointment
	statuses     map[int64]models.AppointmentStatus
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id int64) (*models.Appointment, error) {
	if a, ok := m.appointments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAppointmentRepo) ListOccupiedBetween(ctx context.Context, establishmentID int64, from, to time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range m.appointments {
		if a.EstablishmentID != establishmentID || !a.Status.Occupied() {
			continue
		}
		if a.StartTime.Before(to) && a.EndTime.After(from) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAppointmentRepo) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	var out []models.Appointment
	for _, a := range m.appointments {
		if a.EstablishmentID != filter.EstablishmentID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockAppointmentRepo) CreateIfSlotFree(ctx context.Context, appt *models.Appointment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.appointments == nil {
		m.appointments = make(map[int64]models.Appointment)
	}
	if appt.ID == 0 {
		appt.ID = int64(len(m.appointments) + 1)
	}
	m.appointments[appt.ID] = *appt
	m.created = appt
	return nil
}

func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, id int64, status models.AppointmentStatus) error {
	a, ok := m.appointments[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = status
	m.appointments[id] = a
	if m.statuses == nil {
		m.statuses = make(map[int64]models.AppointmentStatus)
	}
	m.statuses[id] = status
	return nil
}

type mockCacheRepo struct {
	entries  map[string][]byte
	patterns []string
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	m.entries = nil
	return nil
}
