package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tableColumns = `id, number, status`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(&t.ID, &t.Number, &t.Status)
	return t, err
}

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, `SELECT `+tableColumns+` FROM tables ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, `SELECT `+tableColumns+` FROM tables WHERE id = $1`, id)
	return scanTable(row)
}

func (q *Queries) CountTables(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM tables`).Scan(&count)
	return count, err
}

func (q *Queries) CountOccupiedTables(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM tables WHERE status = 'occupied'`).Scan(&count)
	return count, err
}

// CountOccupiedTablesAbove counts occupied tables numbered above n.
// A shrink to n tables is legal only when this is zero.
func (q *Queries) CountOccupiedTablesAbove(ctx context.Context, n int32) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tables WHERE number > $1 AND status = 'occupied'`, n).Scan(&count)
	return count, err
}

// CreateTable appends a table with the given number, status free.
func (q *Queries) CreateTable(ctx context.Context, number int32) (Table, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tables (number, status)
		VALUES ($1, 'free')
		RETURNING `+tableColumns,
		number)
	return scanTable(row)
}

// DeleteTablesAbove removes every table numbered above n and reports how
// many were removed. Callers verify none of them is occupied first, in
// the same transaction.
func (q *Queries) DeleteTablesAbove(ctx context.Context, n int32) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM tables WHERE number > $1`, n)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type UpdateTableStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = $2
		WHERE id = $1
		RETURNING `+tableColumns,
		arg.ID, arg.Status)
	return scanTable(row)
}
