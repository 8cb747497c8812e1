package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/orkestre/orkestre-api/internal/models"
	appErrors "github.com/orkestre/orkestre-api/pkg/errors"
)

type serviceStore interface {
	List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error)
	FindByID(ctx context.Context, id int64) (*models.Service, error)
	Create(ctx context.Context, svc *models.Service) error
	Update(ctx context.Context, svc *models.Service) error
	Deactivate(ctx context.Context, id int64) error
}

// CatalogService manages the establishment's bookable service catalog.
// Removal is a soft delete so existing appointments keep their service
// reference.
type CatalogService struct {
	services  serviceStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(services serviceStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{services: services, cache: cache, validator: validate, logger: logger}
}

// ListPublic returns only the active services customers can book.
func (s *CatalogService) ListPublic(ctx context.Context, establishmentID int64) ([]models.Service, error) {
	return s.list(ctx, models.ServiceFilter{EstablishmentID: establishmentID, ActiveOnly: true})
}

// ListAll returns the full catalog for the owner dashboard, deactivated
// entries included.
func (s *CatalogService) ListAll(ctx context.Context, establishmentID int64) ([]models.Service, error) {
	return s.list(ctx, models.ServiceFilter{EstablishmentID: establishmentID})
}

func (s *CatalogService) list(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error) {
	services, err := s.services.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list services")
	}
	return services, nil
}

// Get loads a service belonging to the establishment.
func (s *CatalogService) Get(ctx context.Context, establishmentID, serviceID int64) (*models.Service, error) {
	svc, err := s.services.FindByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load service")
	}
	if svc.EstablishmentID != establishmentID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
	}
	return svc, nil
}

// Create adds a new active service to the catalog.
func (s *CatalogService) Create(ctx context.Context, establishmentID int64, req models.CreateServiceRequest) (*models.Service, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid service")
	}

	svc := &models.Service{
		EstablishmentID: establishmentID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create service")
	}

	s.logger.Info("service created", zap.Int64("service_id", svc.ID), zap.Int64("establishment_id", establishmentID))
	return svc, nil
}

// Update edits a catalog entry. Duration changes invalidate the cached slot
// lists since they shift every candidate slot of the service.
func (s *CatalogService) Update(ctx context.Context, establishmentID, serviceID int64, req models.UpdateServiceRequest) (*models.Service, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid service")
	}

	svc, err := s.Get(ctx, establishmentID, serviceID)
	if err != nil {
		return nil, err
	}

	svc.Name = req.Name
	svc.Description = req.Description
	svc.Price = req.Price
	svc.DurationMinutes = req.DurationMinutes
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}

	if err := s.services.Update(ctx, svc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update service")
	}

	s.invalidate(ctx, establishmentID)
	s.logger.Info("service updated", zap.Int64("service_id", serviceID))
	return svc, nil
}

// Deactivate soft-deletes a service so it stops appearing on the booking
// page while remaining referenced by past appointments.
func (s *CatalogService) Deactivate(ctx context.Context, establishmentID, serviceID int64) error {
	if _, err := s.Get(ctx, establishmentID, serviceID); err != nil {
		return err
	}
	if err := s.services.Deactivate(ctx, serviceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "service not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate service")
	}

	s.invalidate(ctx, establishmentID)
	s.logger.Info("service deactivated", zap.Int64("service_id", serviceID))
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, establishmentID int64) {
	if err := s.cache.Invalidate(ctx, establishmentInvalidationPattern(establishmentID)); err != nil {
		s.logger.Debug("availability cache invalidation failed", zap.Int64("establishment_id", establishmentID), zap.Error(err))
	}
}
