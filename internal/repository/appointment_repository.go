package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/orkestre/orkestre-api/internal/models"
)

// AppointmentRepository provides persistence for appointments, including the
// race-free check-and-insert that backs the booking write path.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, establishment_id, service_id, start_time, end_time, status, customer_name, customer_phone, customer_email, notes_by_customer, created_at, updated_at`

// FindByID loads an appointment by id.
func (r *AppointmentRepository) FindByID(ctx context.Context, id int64) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1 LIMIT 1`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return &appt, nil
}

// ListOccupiedBetween returns the occupied appointments of an establishment
// whose range intersects [from, to), ordered by start time. Cancelled and
// no-show appointments do not block calendar time and are excluded.
func (r *AppointmentRepository) ListOccupiedBetween(ctx context.Context, establishmentID int64, from, to time.Time) ([]models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE establishment_id = $1 AND status = ANY($2) AND start_time < $4 AND end_time > $3 ORDER BY start_time ASC`, appointmentColumns)
	var appts []models.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, establishmentID, pq.Array(occupiedStatusStrings()), from, to); err != nil {
		return nil, fmt.Errorf("list occupied appointments: %w", err)
	}
	return appts, nil
}

// List returns appointments for the agenda view with optional date and
// status filters plus pagination.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	base := `FROM appointments WHERE establishment_id = $1`
	args := []interface{}{filter.EstablishmentID}
	var conditions []string

	if filter.Date != nil {
		dayStart := *filter.Date
		dayEnd := dayStart.Add(24 * time.Hour)
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d AND start_time < $%d", len(args)+1, len(args)+2))
		args = append(args, dayStart, dayEnd)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(filter.Status))
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY start_time ASC LIMIT %d OFFSET %d`, appointmentColumns, base, size, offset)
	var appts []models.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	return appts, total, nil
}

// CreateIfSlotFree atomically verifies that no occupied appointment overlaps
// the requested range and inserts the new appointment. Concurrent bookings
// serialize on transaction-scoped advisory locks covering every day the
// range touches, so at most one of two overlapping requests can pass the
// overlap check. Unrelated days proceed in parallel. Returns ErrSlotTaken
// when an overlap exists at commit time; nothing is persisted in that case.
func (r *AppointmentRepository) CreateIfSlotFree(ctx context.Context, appt *models.Appointment) error {
	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	lockEst, lockDays := bookingLockKeys(appt.EstablishmentID, appt.StartTime, appt.EndTime)
	for _, lockDay := range lockDays {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, lockEst, lockDay); err != nil {
			return fmt.Errorf("acquire booking lock: %w", err)
		}
	}

	const overlapQuery = `SELECT 1 FROM appointments WHERE establishment_id = $1 AND status = ANY($2) AND start_time < $4 AND end_time > $3 LIMIT 1`
	var one int
	err = tx.GetContext(ctx, &one, overlapQuery, appt.EstablishmentID, pq.Array(occupiedStatusStrings()), appt.StartTime, appt.EndTime)
	switch {
	case err == nil:
		return ErrSlotTaken
	case err != sql.ErrNoRows:
		return fmt.Errorf("check slot overlap: %w", err)
	}

	const insertQuery = `INSERT INTO appointments (establishment_id, service_id, start_time, end_time, status, customer_name, customer_phone, customer_email, notes_by_customer, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if err := tx.QueryRowContext(ctx, insertQuery,
		appt.EstablishmentID, appt.ServiceID, appt.StartTime, appt.EndTime,
		string(appt.Status), appt.CustomerName, appt.CustomerPhone, appt.CustomerEmail,
		appt.NotesByCustomer, appt.CreatedAt, appt.UpdatedAt,
	).Scan(&appt.ID); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	return nil
}

// UpdateStatus transitions an appointment to a new status.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status models.AppointmentStatus) error {
	const query = `UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// bookingLockKeys derives the advisory lock keys for a booking: the
// establishment id paired with the UTC day ordinal of every day the range
// [start, end) touches. A booking whose local evening straddles UTC midnight
// takes both day locks, in ascending order, so two overlapping bookings
// always hold at least one key in common whatever the establishment
// timezone. Bookings on unrelated days stay concurrent.
func bookingLockKeys(establishmentID int64, start, end time.Time) (int32, []int32) {
	firstDay := int32(start.UTC().Unix() / 86400)
	lastDay := firstDay
	if end.After(start) {
		lastDay = int32(end.UTC().Add(-time.Nanosecond).Unix() / 86400)
	}
	days := []int32{firstDay}
	for day := firstDay + 1; day <= lastDay; day++ {
		days = append(days, day)
	}
	return int32(establishmentID), days
}

func occupiedStatusStrings() []string {
	out := make([]string, len(models.OccupiedStatuses))
	for i, s := range models.OccupiedStatuses {
		out[i] = string(s)
	}
	return out
}
