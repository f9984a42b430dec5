package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warehousekit/contractd/internal/log"
	"github.com/warehousekit/contractd/internal/org"
)

// OrgRepository is the persistence the organization service needs.
type OrgRepository interface {
	AddBuilding(ctx context.Context, b *org.Building) error
	GetBuilding(ctx context.Context, id uuid.UUID) (*org.Building, error)
	AddFacility(ctx context.Context, f *org.StorageFacility) error
	GetFacility(ctx context.Context, id uuid.UUID) (*org.StorageFacility, error)
	UpdateFacility(ctx context.Context, f *org.StorageFacility) error
}

// Org manages buildings and storage facilities. Unlike contracts these are
// plain synchronous CRUD, no saga behind them.
type Org struct {
	repo   OrgRepository
	logger zerolog.Logger
}

func NewOrg(repo OrgRepository) *Org {
	return &Org{
		repo:   repo,
		logger: log.WithComponent("service.org"),
	}
}

func (s *Org) CreateBuilding(ctx context.Context, id uuid.UUID, country, region, city, street, buildingNumber string, totalFloors int) (*org.Building, error) {
	b, err := org.NewBuilding(id, country, region, city, street, buildingNumber, totalFloors)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddBuilding(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info().Str("building_id", id.String()).Msg("building registered")
	return b, nil
}

func (s *Org) GetBuilding(ctx context.Context, id uuid.UUID) (*org.Building, error) {
	return s.repo.GetBuilding(ctx, id)
}

func (s *Org) CreateFacility(ctx context.Context, id uuid.UUID, name string, building uuid.UUID, floor int) (*org.StorageFacility, error) {
	f, err := org.NewStorageFacility(id, name, building, floor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddFacility(ctx, f); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("facility_id", id.String()).
		Str("building_id", building.String()).
		Msg("storage facility registered")
	return f, nil
}

func (s *Org) GetFacility(ctx context.Context, id uuid.UUID) (*org.StorageFacility, error) {
	return s.repo.GetFacility(ctx, id)
}

func (s *Org) AddSection(ctx context.Context, facilityID uuid.UUID, code string, area float64) error {
	f, err := s.repo.GetFacility(ctx, facilityID)
	if err != nil {
		return err
	}
	if err := f.AddSection(code, area); err != nil {
		return err
	}
	return s.repo.UpdateFacility(ctx, f)
}

func (s *Org) ResizeSection(ctx context.Context, facilityID uuid.UUID, code string, area float64) error {
	f, err := s.repo.GetFacility(ctx, facilityID)
	if err != nil {
		return err
	}
	if err := f.ResizeSection(code, area); err != nil {
		return err
	}
	return s.repo.UpdateFacility(ctx, f)
}
