package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/orkestre/orkestre-api/internal/models"
)

// ServiceRepository provides persistence for the service catalog.
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository creates a new service repository.
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

const serviceColumns = `id, establishment_id, name, description, price, duration_minutes, is_active, created_at, updated_at`

// List returns the services of an establishment, optionally active ones only.
func (r *ServiceRepository) List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error) {
	query := fmt.Sprintf(`SELECT %s FROM services WHERE establishment_id = $1`, serviceColumns)
	if filter.ActiveOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	var services []models.Service
	if err := r.db.SelectContext(ctx, &services, query, filter.EstablishmentID); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// FindByID loads a service by id.
func (r *ServiceRepository) FindByID(ctx context.Context, id int64) (*models.Service, error) {
	query := fmt.Sprintf(`SELECT %s FROM services WHERE id = $1 LIMIT 1`, serviceColumns)
	var svc models.Service
	if err := r.db.GetContext(ctx, &svc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find service: %w", err)
	}
	return &svc, nil
}

// Create stores a new service record and populates the generated id.
func (r *ServiceRepository) Create(ctx context.Context, svc *models.Service) error {
	now := time.Now().UTC()
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = now
	}
	svc.UpdatedAt = now

	const query = `INSERT INTO services (establishment_id, name, description, price, duration_minutes, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, svc.EstablishmentID, svc.Name, svc.Description, svc.Price, svc.DurationMinutes, svc.IsActive, svc.CreatedAt, svc.UpdatedAt).Scan(&svc.ID); err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a service.
func (r *ServiceRepository) Update(ctx context.Context, svc *models.Service) error {
	svc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE services SET name = $2, description = $3, price = $4, duration_minutes = $5, is_active = $6, updated_at = $7 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, svc.ID, svc.Name, svc.Description, svc.Price, svc.DurationMinutes, svc.IsActive, svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-deletes a service. Existing appointments keep their
// reference; the service simply stops being offered.
func (r *ServiceRepository) Deactivate(ctx context.Context, id int64) error {
	const query = `UPDATE services SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate service: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
