package org

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxFacilityNameLen = 100

// StorageSection is one storage area inside a facility, identified by its
// code within the facility.
type StorageSection struct {
	id   uuid.UUID
	code string
	area float64
}

func RehydrateSection(id uuid.UUID, code string, area float64) *StorageSection {
	return &StorageSection{id: id, code: code, area: area}
}

func (s *StorageSection) ID() uuid.UUID { return s.id }
func (s *StorageSection) Code() string  { return s.code }
func (s *StorageSection) Area() float64 { return s.area }

// StorageFacility is a storage area on one floor of a building, divided
// into sections with unique codes.
type StorageFacility struct {
	id       uuid.UUID
	name     string
	building uuid.UUID
	floor    int
	sections []*StorageSection
}

func NewStorageFacility(id uuid.UUID, name string, building uuid.UUID, floor int) (*StorageFacility, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: facility id must not be empty", ErrInvalidArgument)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: facility name must not be empty", ErrInvalidArgument)
	}
	if len(name) > maxFacilityNameLen {
		return nil, fmt.Errorf("%w: facility name exceeds %d characters", ErrInvalidArgument, maxFacilityNameLen)
	}
	if building == uuid.Nil {
		return nil, fmt.Errorf("%w: building id must not be empty", ErrInvalidArgument)
	}
	if floor < 0 {
		return nil, fmt.Errorf("%w: floor number must be non-negative, got %d", ErrInvalidArgument, floor)
	}
	return &StorageFacility{id: id, name: name, building: building, floor: floor}, nil
}

func RehydrateStorageFacility(id uuid.UUID, name string, building uuid.UUID, floor int, sections []*StorageSection) *StorageFacility {
	return &StorageFacility{id: id, name: name, building: building, floor: floor, sections: sections}
}

func (f *StorageFacility) ID() uuid.UUID       { return f.id }
func (f *StorageFacility) Name() string        { return f.name }
func (f *StorageFacility) Building() uuid.UUID { return f.building }
func (f *StorageFacility) Floor() int          { return f.floor }

func (f *StorageFacility) Sections() []*StorageSection {
	out := make([]*StorageSection, len(f.sections))
	copy(out, f.sections)
	return out
}

// AddSection adds a section with a facility-unique code.
func (f *StorageFacility) AddSection(code string, area float64) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: section code must not be empty", ErrInvalidArgument)
	}
	if area <= 0 {
		return fmt.Errorf("%w: section area must be positive, got %g", ErrInvalidArgument, area)
	}
	if f.section(code) != nil {
		return fmt.Errorf("%w: section %q already exists", ErrConflict, code)
	}
	f.sections = append(f.sections, &StorageSection{id: uuid.New(), code: code, area: area})
	return nil
}

// ResizeSection changes the area of an existing section.
func (f *StorageFacility) ResizeSection(code string, area float64) error {
	if area <= 0 {
		return fmt.Errorf("%w: section area must be positive, got %g", ErrInvalidArgument, area)
	}
	s := f.section(strings.TrimSpace(code))
	if s == nil {
		return fmt.Errorf("%w: section %q", ErrNotFound, code)
	}
	s.area = area
	return nil
}

func (f *StorageFacility) section(code string) *StorageSection {
	for _, s := range f.sections {
		if s.code == code {
			return s
		}
	}
	return nil
}
