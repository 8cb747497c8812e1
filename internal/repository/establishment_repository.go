package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/orkestre/orkestre-api/internal/models"
)

// EstablishmentRepository provides persistence for establishments, including
// the JSONB working-hours configuration.
type EstablishmentRepository struct {
	db *sqlx.DB
}

// NewEstablishmentRepository creates a new establishment repository.
func NewEstablishmentRepository(db *sqlx.DB) *EstablishmentRepository {
	return &EstablishmentRepository{db: db}
}

// FindByID loads an establishment by id.
func (r *EstablishmentRepository) FindByID(ctx context.Context, id int64) (*models.Establishment, error) {
	const query = `SELECT id, owner_id, name, timezone, working_hours_config, created_at, updated_at FROM establishments WHERE id = $1 LIMIT 1`
	var est models.Establishment
	if err := r.db.GetContext(ctx, &est, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find establishment: %w", err)
	}
	return &est, nil
}

// FindByOwner loads the establishment belonging to an owner account.
func (r *EstablishmentRepository) FindByOwner(ctx context.Context, ownerID int64) (*models.Establishment, error) {
	const query = `SELECT id, owner_id, name, timezone, working_hours_config, created_at, updated_at FROM establishments WHERE owner_id = $1 LIMIT 1`
	var est models.Establishment
	if err := r.db.GetContext(ctx, &est, query, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find establishment by owner: %w", err)
	}
	return &est, nil
}

// Create stores a new establishment and populates the generated id.
func (r *EstablishmentRepository) Create(ctx context.Context, est *models.Establishment) error {
	now := time.Now().UTC()
	if est.CreatedAt.IsZero() {
		est.CreatedAt = now
	}
	est.UpdatedAt = now

	const query = `INSERT INTO establishments (owner_id, name, timezone, working_hours_config, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, est.OwnerID, est.Name, est.Timezone, est.WorkingHoursConfig, est.CreatedAt, est.UpdatedAt).Scan(&est.ID); err != nil {
		return fmt.Errorf("create establishment: %w", err)
	}
	return nil
}

// UpdateWorkingHours replaces the working-hours configuration wholesale.
func (r *EstablishmentRepository) UpdateWorkingHours(ctx context.Context, id int64, cfg *models.WorkingHoursConfig) error {
	const query = `UPDATE establishments SET working_hours_config = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, cfg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update working hours: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
