package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bhouse-pos/api/internal/database"
)

// maxTableCount caps the floor size; a fat-fingered count should not
// create thousands of rows.
const maxTableCount = 200

var (
	ErrInvalidTableCount = errors.New("table count must be between 1 and 200")
	ErrTablesStillInUse  = errors.New("cannot remove tables that are occupied")
)

// TableStore defines the DB methods table management needs.
type TableStore interface {
	CountTables(ctx context.Context) (int64, error)
	CountOccupiedTablesAbove(ctx context.Context, n int32) (int64, error)
	CreateTable(ctx context.Context, number int32) (database.Table, error)
	DeleteTablesAbove(ctx context.Context, n int32) (int64, error)
}

// NewTableStore creates a TableStore from a DBTX (pool or tx).
type NewTableStore func(db database.DBTX) TableStore

// TableService resizes the floor plan.
type TableService struct {
	pool     TxBeginner
	newStore NewTableStore
}

func NewTableService(pool TxBeginner, newStore NewTableStore) *TableService {
	return &TableService{pool: pool, newStore: newStore}
}

// SetTableCount grows or shrinks the floor to exactly count tables.
// Growing appends free tables; shrinking removes the highest-numbered
// tables and is rejected while any of them is occupied. Runs in one
// transaction so a concurrent seating cannot race the shrink.
func (s *TableService) SetTableCount(ctx context.Context, count int32) (int64, error) {
	if count < 1 || count > maxTableCount {
		return 0, ErrInvalidTableCount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.CountTables(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tables: %w", err)
	}

	switch {
	case int64(count) > current:
		for n := int32(current) + 1; n <= count; n++ {
			if _, err := store.CreateTable(ctx, n); err != nil {
				return 0, fmt.Errorf("create table %d: %w", n, err)
			}
		}
	case int64(count) < current:
		occupied, err := store.CountOccupiedTablesAbove(ctx, count)
		if err != nil {
			return 0, fmt.Errorf("count occupied tables: %w", err)
		}
		if occupied > 0 {
			return 0, ErrTablesStillInUse
		}
		if _, err := store.DeleteTablesAbove(ctx, count); err != nil {
			return 0, fmt.Errorf("delete tables: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return int64(count), nil
}
