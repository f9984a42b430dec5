// Package store persists saga state in Badger. One record per correlation
// id; read-modify-write goes through a single Badger transaction, which
// serializes concurrent writers on the same key.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/warehousekit/contractd/internal/domain/contract"
	"github.com/warehousekit/contractd/internal/lifecycle"
)

const sagaKeyPrefix = "saga:"

// SagaStore keeps the orchestration ledger.
type SagaStore struct {
	db *badger.DB
}

// OpenSagaStore opens (or creates) the Badger database at path.
func OpenSagaStore(path string) (*SagaStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger at %s: %w", path, err)
	}
	return &SagaStore{db: db}, nil
}

func (s *SagaStore) Close() error { return s.db.Close() }

func sagaKey(correlationID uuid.UUID) []byte {
	return []byte(sagaKeyPrefix + correlationID.String())
}

// Put writes the record unconditionally.
func (s *SagaStore) Put(ctx context.Context, rec *lifecycle.SagaState) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal saga %s: %w", rec.CorrelationID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sagaKey(rec.CorrelationID), buf)
	})
	if err != nil {
		return fmt.Errorf("store: put saga %s: %w", rec.CorrelationID, err)
	}
	return nil
}

// Get loads the record for correlationID.
func (s *SagaStore) Get(ctx context.Context, correlationID uuid.UUID) (*lifecycle.SagaState, error) {
	var out lifecycle.SagaState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sagaKey(correlationID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("store: saga %s: %w", correlationID, contract.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get saga %s: %w", correlationID, err)
	}
	return &out, nil
}

// Update applies fn to the stored record inside one transaction. The whole
// load-mutate-save unit either commits or leaves the record untouched.
func (s *SagaStore) Update(ctx context.Context, correlationID uuid.UUID, fn func(*lifecycle.SagaState) error) (*lifecycle.SagaState, error) {
	key := sagaKey(correlationID)
	var out lifecycle.SagaState
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		}); err != nil {
			return err
		}
		if err := fn(&out); err != nil {
			return err
		}
		buf, err := json.Marshal(out)
		if err != nil {
			return err
		}
		return txn.Set(key, buf)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("store: saga %s: %w", correlationID, contract.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: update saga %s: %w", correlationID, err)
	}
	return &out, nil
}
