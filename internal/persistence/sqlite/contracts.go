// Package sqlite persists the business aggregates. Writes use an
// optimistic version check so concurrent writers racing on stale state
// never both succeed.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/warehousekit/contractd/internal/domain/contract"
)

const contractsSchema = `
CREATE TABLE IF NOT EXISTS contracts (
	id            TEXT PRIMARY KEY,
	warehouse_id  TEXT NOT NULL,
	manager_id    TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	scheduled_for TEXT NOT NULL,
	status        TEXT NOT NULL,
	version       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS contract_lines (
	id          TEXT PRIMARY KEY,
	contract_id TEXT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
	product_id  TEXT NOT NULL,
	quantity    INTEGER NOT NULL,
	position    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contract_lines_contract ON contract_lines(contract_id);
`

// ContractRepository is the persistence port for the contract aggregate.
type ContractRepository struct {
	db *sql.DB
}

// NewContractRepository ensures the schema exists and returns the repository.
func NewContractRepository(db *sql.DB) (*ContractRepository, error) {
	if _, err := db.Exec(contractsSchema); err != nil {
		return nil, fmt.Errorf("sqlite: create contracts schema: %w", err)
	}
	return &ContractRepository{db: db}, nil
}

// Add inserts a freshly created contract at version 1.
func (r *ContractRepository) Add(ctx context.Context, c *contract.Contract) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin add contract: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO contracts (id, warehouse_id, manager_id, created_at, scheduled_for, status, version)
		 VALUES (?, ?, ?, ?, ?, ?, 1)`,
		c.ID().String(),
		c.Warehouse().String(),
		c.Manager().String(),
		c.CreatedAt().UTC().Format(time.RFC3339Nano),
		c.ScheduledFor().Time().Format(time.RFC3339Nano),
		c.Status().String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: contract %s already exists: %w", c.ID(), contract.ErrConflict)
		}
		return fmt.Errorf("sqlite: insert contract %s: %w", c.ID(), err)
	}

	if err := insertLines(ctx, tx, c); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit add contract %s: %w", c.ID(), err)
	}
	return nil
}

// Get loads a contract and its current version.
func (r *ContractRepository) Get(ctx context.Context, id contract.ContractID) (*contract.Contract, int64, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT warehouse_id, manager_id, created_at, scheduled_for, status, version
		 FROM contracts WHERE id = ?`, id.String())

	var (
		warehouseRaw, managerRaw, createdRaw, scheduledRaw, statusRaw string
		version                                                      int64
	)
	err := row.Scan(&warehouseRaw, &managerRaw, &createdRaw, &scheduledRaw, &statusRaw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("sqlite: contract %s: %w", id, contract.ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: load contract %s: %w", id, err)
	}

	c, err := r.rehydrate(ctx, id, warehouseRaw, managerRaw, createdRaw, scheduledRaw, statusRaw)
	if err != nil {
		return nil, 0, err
	}
	return c, version, nil
}

// Update persists a mutated aggregate. expectedVersion is the version the
// caller loaded; a mismatch means another writer committed in between and
// yields ErrConflict.
func (r *ContractRepository) Update(ctx context.Context, c *contract.Contract, expectedVersion int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin update contract: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE contracts
		 SET scheduled_for = ?, status = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		c.ScheduledFor().Time().Format(time.RFC3339Nano),
		c.Status().String(),
		c.ID().String(),
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update contract %s: %w", c.ID(), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update contract %s: %w", c.ID(), err)
	}
	if affected == 0 {
		// Either the row vanished or the version moved underneath us.
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM contracts WHERE id = ?`, c.ID().String()).Scan(&exists); err != nil {
			return fmt.Errorf("sqlite: update contract %s: %w", c.ID(), err)
		}
		if exists == 0 {
			return fmt.Errorf("sqlite: contract %s: %w", c.ID(), contract.ErrNotFound)
		}
		return fmt.Errorf("sqlite: contract %s version %d is stale: %w", c.ID(), expectedVersion, contract.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM contract_lines WHERE contract_id = ?`, c.ID().String()); err != nil {
		return fmt.Errorf("sqlite: replace lines of %s: %w", c.ID(), err)
	}
	if err := insertLines(ctx, tx, c); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit update contract %s: %w", c.ID(), err)
	}
	return nil
}

func insertLines(ctx context.Context, tx *sql.Tx, c *contract.Contract) error {
	for i, l := range c.Lines() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO contract_lines (id, contract_id, product_id, quantity, position)
			 VALUES (?, ?, ?, ?, ?)`,
			l.ID().String(),
			c.ID().String(),
			l.Product().String(),
			l.Quantity().Int(),
			i,
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert line %s of %s: %w", l.ID(), c.ID(), err)
		}
	}
	return nil
}

func (r *ContractRepository) rehydrate(ctx context.Context, id contract.ContractID, warehouseRaw, managerRaw, createdRaw, scheduledRaw, statusRaw string) (*contract.Contract, error) {
	warehouseUUID, err := uuid.Parse(warehouseRaw)
	if err != nil {
		return nil, fmt.Errorf("sqlite: contract %s has malformed warehouse id: %w", id, err)
	}
	warehouse, err := contract.NewWarehouseID(warehouseUUID)
	if err != nil {
		return nil, err
	}
	managerUUID, err := uuid.Parse(managerRaw)
	if err != nil {
		return nil, fmt.Errorf("sqlite: contract %s has malformed manager id: %w", id, err)
	}
	manager, err := contract.NewManagerID(managerUUID)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdRaw)
	if err != nil {
		return nil, fmt.Errorf("sqlite: contract %s has malformed created_at: %w", id, err)
	}
	scheduledTime, err := time.Parse(time.RFC3339Nano, scheduledRaw)
	if err != nil {
		return nil, fmt.Errorf("sqlite: contract %s has malformed scheduled_for: %w", id, err)
	}
	scheduledFor, err := contract.RehydrateScheduledDate(scheduledTime)
	if err != nil {
		return nil, err
	}
	status, err := contract.ParseStatus(statusRaw)
	if err != nil {
		return nil, err
	}

	lines, err := r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return contract.Rehydrate(id, warehouse, manager, createdAt, scheduledFor, status, lines), nil
}

func (r *ContractRepository) loadLines(ctx context.Context, id contract.ContractID) ([]*contract.Line, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, quantity FROM contract_lines
		 WHERE contract_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: load lines of %s: %w", id, err)
	}
	defer rows.Close()

	var lines []*contract.Line
	for rows.Next() {
		var lineRaw, productRaw string
		var qty int
		if err := rows.Scan(&lineRaw, &productRaw, &qty); err != nil {
			return nil, fmt.Errorf("sqlite: scan line of %s: %w", id, err)
		}
		lineUUID, err := uuid.Parse(lineRaw)
		if err != nil {
			return nil, fmt.Errorf("sqlite: line of %s has malformed id: %w", id, err)
		}
		lineID, err := contract.NewLineID(lineUUID)
		if err != nil {
			return nil, err
		}
		productUUID, err := uuid.Parse(productRaw)
		if err != nil {
			return nil, fmt.Errorf("sqlite: line %s has malformed product id: %w", lineRaw, err)
		}
		productID, err := contract.NewProductID(productUUID)
		if err != nil {
			return nil, err
		}
		quantity, err := contract.NewQuantity(qty)
		if err != nil {
			return nil, err
		}
		lines = append(lines, contract.RehydrateLine(lineID, productID, quantity))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate lines of %s: %w", id, err)
	}
	return lines, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
