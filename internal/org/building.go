package org

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Address is the postal address of a building. All five parts are required.
type Address struct {
	country        string
	region         string
	city           string
	street         string
	buildingNumber string
}

func NewAddress(country, region, city, street, buildingNumber string) (Address, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"country", country},
		{"region", region},
		{"city", city},
		{"street", street},
		{"building number", buildingNumber},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return Address{}, fmt.Errorf("%w: %s is required", ErrInvalidArgument, f.name)
		}
	}
	return Address{
		country:        strings.TrimSpace(country),
		region:         strings.TrimSpace(region),
		city:           strings.TrimSpace(city),
		street:         strings.TrimSpace(street),
		buildingNumber: strings.TrimSpace(buildingNumber),
	}, nil
}

func (a Address) Country() string        { return a.country }
func (a Address) Region() string         { return a.region }
func (a Address) City() string           { return a.city }
func (a Address) Street() string         { return a.street }
func (a Address) BuildingNumber() string { return a.buildingNumber }

func (a Address) String() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s", a.street, a.buildingNumber, a.city, a.region, a.country)
}

// Building is a physical building housing storage facilities.
type Building struct {
	id          uuid.UUID
	address     Address
	totalFloors int
}

// NewBuilding validates the address parts and the floor count.
func NewBuilding(id uuid.UUID, country, region, city, street, buildingNumber string, totalFloors int) (*Building, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: building id must not be empty", ErrInvalidArgument)
	}
	addr, err := NewAddress(country, region, city, street, buildingNumber)
	if err != nil {
		return nil, err
	}
	if totalFloors <= 0 {
		return nil, fmt.Errorf("%w: total floors must be positive, got %d", ErrInvalidArgument, totalFloors)
	}
	return &Building{id: id, address: addr, totalFloors: totalFloors}, nil
}

// RehydrateBuilding restores a stored building without re-validation.
func RehydrateBuilding(id uuid.UUID, addr Address, totalFloors int) *Building {
	return &Building{id: id, address: addr, totalFloors: totalFloors}
}

func (b *Building) ID() uuid.UUID    { return b.id }
func (b *Building) Address() Address { return b.address }
func (b *Building) TotalFloors() int { return b.totalFloors }
