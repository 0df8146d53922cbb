package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdelrosario/kiosk-server/internal/models"
)

// Service catalog methods
func (s *DefaultService) ListServices(ctx context.Context) ([]models.ServiceType, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing services: %w", err)
	}

	return services, nil
}

func (s *DefaultService) CreateService(ctx context.Context, req models.SaveServiceRequest) (*models.ServiceType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: service name is required", ErrValidation)
	}
	if req.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price must not be negative", ErrValidation)
	}

	svc := &models.ServiceType{
		Name:      name,
		UnitPrice: req.UnitPrice,
	}

	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("error creating service: %w", err)
	}

	return svc, nil
}

func (s *DefaultService) UpdateService(ctx context.Context, serviceID int, req models.SaveServiceRequest) (*models.ServiceType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: service name is required", ErrValidation)
	}
	if req.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price must not be negative", ErrValidation)
	}

	existing, err := s.repo.GetServicesByIDs(ctx, []int{serviceID})
	if err != nil {
		return nil, fmt.Errorf("error getting service: %w", err)
	}
	if _, ok := existing[serviceID]; !ok {
		return nil, fmt.Errorf("%w: service %d", ErrNotFound, serviceID)
	}

	svc := &models.ServiceType{
		ID:        serviceID,
		Name:      name,
		UnitPrice: req.UnitPrice,
	}

	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("error updating service: %w", err)
	}

	return svc, nil
}

func (s *DefaultService) DeleteService(ctx context.Context, serviceID int) error {
	existing, err := s.repo.GetServicesByIDs(ctx, []int{serviceID})
	if err != nil {
		return fmt.Errorf("error getting service: %w", err)
	}
	if _, ok := existing[serviceID]; !ok {
		return fmt.Errorf("%w: service %d", ErrNotFound, serviceID)
	}

	if err := s.repo.DeleteService(ctx, serviceID); err != nil {
		return fmt.Errorf("error deleting service: %w", err)
	}

	return nil
}
