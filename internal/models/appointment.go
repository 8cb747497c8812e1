package models

import "time"

// AppointmentStatus enumerates the lifecycle states of an appointment.
type AppointmentStatus string

const (
	StatusPending                  AppointmentStatus = "pending"
	StatusConfirmed                AppointmentStatus = "confirmed"
	StatusCompleted                AppointmentStatus = "completed"
	StatusCancelledByEstablishment AppointmentStatus = "cancelled_by_establishment"
	StatusCancelledByCustomer      AppointmentStatus = "cancelled_by_customer"
	StatusNoShow                   AppointmentStatus = "no_show"
)

// OccupiedStatuses are the states that keep an appointment's time range
// blocked for new bookings. A pending hold still occupies its slot so two
// customers cannot converge on one unconfirmed request.
var OccupiedStatuses = []AppointmentStatus{StatusPending, StatusConfirmed, StatusCompleted}

// Occupied reports whether the status blocks calendar time.
func (s AppointmentStatus) Occupied() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return true
	}
	return false
}

// Valid reports whether the status is one of the known values.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted,
		StatusCancelledByEstablishment, StatusCancelledByCustomer, StatusNoShow:
		return true
	}
	return false
}

// statusTransitions is the owner-driven appointment state machine.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending: {
		StatusConfirmed,
		StatusCancelledByEstablishment,
		StatusCancelledByCustomer,
	},
	StatusConfirmed: {
		StatusCompleted,
		StatusNoShow,
		StatusCancelledByEstablishment,
	},
}

// CanTransition reports whether moving from -> to is an allowed state change.
// Terminal states (completed, cancelled, no_show) allow no further moves.
func CanTransition(from, to AppointmentStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Appointment is a booked time range for a service of an establishment.
// EndTime is derived from the service duration at creation time and stored
// so overlap queries never need a join.
type Appointment struct {
	ID              int64             `db:"id" json:"id"`
	EstablishmentID int64             `db:"establishment_id" json:"establishment_id"`
	ServiceID       int64             `db:"service_id" json:"service_id"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	EndTime         time.Time         `db:"end_time" json:"end_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	CustomerName    string            `db:"customer_name" json:"customer_name"`
	CustomerPhone   string            `db:"customer_phone" json:"customer_phone"`
	CustomerEmail   *string           `db:"customer_email" json:"customer_email,omitempty"`
	NotesByCustomer *string           `db:"notes_by_customer" json:"notes_by_customer,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentFilter narrows agenda listings.
type AppointmentFilter struct {
	EstablishmentID int64
	Date            *time.Time
	Status          AppointmentStatus
	Page            int
	PageSize        int
}

// CreateAppointmentRequest is the public booking payload.
type CreateAppointmentRequest struct {
	StartTime       string  `json:"start_time" validate:"required"`
	ServiceID       int64   `json:"service_id" validate:"required,gt=0"`
	CustomerName    string  `json:"customer_name" validate:"required,min=2,max=120"`
	CustomerPhone   string  `json:"customer_phone" validate:"required,min=8,max=32"`
	CustomerEmail   *string `json:"customer_email,omitempty" validate:"omitempty,email"`
	NotesByCustomer *string `json:"notes_by_customer,omitempty" validate:"omitempty,max=500"`
}

// UpdateAppointmentStatusRequest is the owner-side status transition payload.
type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" validate:"required"`
}
