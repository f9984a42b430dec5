package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/warehousekit/contractd/internal/org"
)

const orgSchema = `
CREATE TABLE IF NOT EXISTS buildings (
	id              TEXT PRIMARY KEY,
	country         TEXT NOT NULL,
	region          TEXT NOT NULL,
	city            TEXT NOT NULL,
	street          TEXT NOT NULL,
	building_number TEXT NOT NULL,
	total_floors    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS storage_facilities (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	building_id TEXT NOT NULL REFERENCES buildings(id),
	floor       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS storage_sections (
	id          TEXT PRIMARY KEY,
	facility_id TEXT NOT NULL REFERENCES storage_facilities(id) ON DELETE CASCADE,
	code        TEXT NOT NULL,
	area        REAL NOT NULL,
	UNIQUE (facility_id, code)
);
`

// OrgRepository stores buildings and storage facilities.
type OrgRepository struct {
	db *sql.DB
}

func NewOrgRepository(db *sql.DB) (*OrgRepository, error) {
	if _, err := db.Exec(orgSchema); err != nil {
		return nil, fmt.Errorf("sqlite: create org schema: %w", err)
	}
	return &OrgRepository{db: db}, nil
}

func (r *OrgRepository) AddBuilding(ctx context.Context, b *org.Building) error {
	addr := b.Address()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO buildings (id, country, region, city, street, building_number, total_floors)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID().String(), addr.Country(), addr.Region(), addr.City(),
		addr.Street(), addr.BuildingNumber(), b.TotalFloors(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: building %s already exists: %w", b.ID(), org.ErrConflict)
		}
		return fmt.Errorf("sqlite: insert building %s: %w", b.ID(), err)
	}
	return nil
}

func (r *OrgRepository) GetBuilding(ctx context.Context, id uuid.UUID) (*org.Building, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT country, region, city, street, building_number, total_floors
		 FROM buildings WHERE id = ?`, id.String())

	var country, region, city, street, number string
	var floors int
	err := row.Scan(&country, &region, &city, &street, &number, &floors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: building %s: %w", id, org.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load building %s: %w", id, err)
	}
	addr, err := org.NewAddress(country, region, city, street, number)
	if err != nil {
		return nil, err
	}
	return org.RehydrateBuilding(id, addr, floors), nil
}

// AddFacility inserts a facility. The building must exist.
func (r *OrgRepository) AddFacility(ctx context.Context, f *org.StorageFacility) error {
	if _, err := r.GetBuilding(ctx, f.Building()); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin add facility: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO storage_facilities (id, name, building_id, floor) VALUES (?, ?, ?, ?)`,
		f.ID().String(), f.Name(), f.Building().String(), f.Floor(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: facility %s already exists: %w", f.ID(), org.ErrConflict)
		}
		return fmt.Errorf("sqlite: insert facility %s: %w", f.ID(), err)
	}
	if err := insertSections(ctx, tx, f); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit add facility %s: %w", f.ID(), err)
	}
	return nil
}

func (r *OrgRepository) GetFacility(ctx context.Context, id uuid.UUID) (*org.StorageFacility, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT name, building_id, floor FROM storage_facilities WHERE id = ?`, id.String())

	var name, buildingRaw string
	var floor int
	err := row.Scan(&name, &buildingRaw, &floor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: facility %s: %w", id, org.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load facility %s: %w", id, err)
	}
	buildingID, err := uuid.Parse(buildingRaw)
	if err != nil {
		return nil, fmt.Errorf("sqlite: facility %s has malformed building id: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, area FROM storage_sections WHERE facility_id = ? ORDER BY code`, id.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: load sections of %s: %w", id, err)
	}
	defer rows.Close()

	var sections []*org.StorageSection
	for rows.Next() {
		var sectionRaw, code string
		var area float64
		if err := rows.Scan(&sectionRaw, &code, &area); err != nil {
			return nil, fmt.Errorf("sqlite: scan section of %s: %w", id, err)
		}
		sectionID, err := uuid.Parse(sectionRaw)
		if err != nil {
			return nil, fmt.Errorf("sqlite: section of %s has malformed id: %w", id, err)
		}
		sections = append(sections, org.RehydrateSection(sectionID, code, area))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate sections of %s: %w", id, err)
	}
	return org.RehydrateStorageFacility(id, name, buildingID, floor, sections), nil
}

// UpdateFacility replaces the stored section set with the aggregate's.
func (r *OrgRepository) UpdateFacility(ctx context.Context, f *org.StorageFacility) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin update facility: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE storage_facilities SET name = ?, floor = ? WHERE id = ?`,
		f.Name(), f.Floor(), f.ID().String(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: update facility %s: %w", f.ID(), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update facility %s: %w", f.ID(), err)
	}
	if affected == 0 {
		return fmt.Errorf("sqlite: facility %s: %w", f.ID(), org.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM storage_sections WHERE facility_id = ?`, f.ID().String()); err != nil {
		return fmt.Errorf("sqlite: replace sections of %s: %w", f.ID(), err)
	}
	if err := insertSections(ctx, tx, f); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit update facility %s: %w", f.ID(), err)
	}
	return nil
}

func insertSections(ctx context.Context, tx *sql.Tx, f *org.StorageFacility) error {
	for _, s := range f.Sections() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO storage_sections (id, facility_id, code, area) VALUES (?, ?, ?, ?)`,
			s.ID().String(), f.ID().String(), s.Code(), s.Area(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("sqlite: section %q of %s: %w", s.Code(), f.ID(), org.ErrConflict)
			}
			return fmt.Errorf("sqlite: insert section %q of %s: %w", s.Code(), f.ID(), err)
		}
	}
	return nil
}
