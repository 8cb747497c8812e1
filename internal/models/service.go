package models

import "time"

// Service is a bookable offering of an establishment.
type Service struct {
	ID              int64     `db:"id" json:"id"`
	EstablishmentID int64     `db:"establishment_id" json:"establishment_id"`
	Name            string    `db:"name" json:"name"`
	Description     *string   `db:"description" json:"description,omitempty"`
	Price           float64   `db:"price" json:"price"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ServiceFilter narrows service listings.
type ServiceFilter struct {
	EstablishmentID int64
	ActiveOnly      bool
}

// CreateServiceRequest is the owner payload for adding a catalog entry.
type CreateServiceRequest struct {
	Name            string  `json:"name" validate:"required,min=2,max=120"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Price           float64 `json:"price" validate:"gte=0"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0,lte=720"`
}

// UpdateServiceRequest is the owner payload for editing a catalog entry.
type UpdateServiceRequest struct {
	Name            string  `json:"name" validate:"required,min=2,max=120"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Price           float64 `json:"price" validate:"gte=0"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0,lte=720"`
	IsActive        *bool   `json:"is_active,omitempty"`
}
