package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrNoFields = errors.New("no fields to write")

// Fields maps column names to values for a write.
type Fields map[string]any

func (f Fields) columns() []string {
	cols := make([]string, 0, len(f))
	for col := range f {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// Repository implements create/read/update/delete for one record kind. Each
// call runs in its own transaction.
type Repository[T Record] struct {
	db     *sqlx.DB
	table  Table
	logger *zap.Logger
}

func NewRepository[T Record](db *sqlx.DB, logger *zap.Logger) *Repository[T] {
	var zero T
	table := zero.Table()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository[T]{
		db:     db,
		table:  table,
		logger: logger.With(zap.String("table", table.Name)),
	}
}

func (r *Repository[T]) Create(ctx context.Context, fields Fields) error {
	const op = "Create"

	cols, args, err := r.split(fields)
	if err != nil {
		return wrap(op, r.table.Name, err)
	}
	if len(cols) == 0 {
		return wrap(op, r.table.Name, ErrNoFields)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.table.Name, strings.Join(cols, ", "), placeholders(len(cols)))

	return r.withTx(ctx, op, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		return err
	})
}

// Read returns every row owned by user in insertion order.
func (r *Repository[T]) Read(ctx context.Context, user int64) ([]T, error) {
	const op = "Read"

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s",
		strings.Join(r.table.Columns, ", "), r.table.Name, r.table.Owner, r.table.PrimaryKey)

	rows := make([]T, 0)
	err := r.withTx(ctx, op, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &rows, tx.Rebind(query), user)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update applies fields to the row with the given primary key. A missing row is not an error.
func (r *Repository[T]) Update(ctx context.Context, pk any, fields Fields) error {
	const op = "Update"

	cols, args, err := r.split(fields)
	if err != nil {
		return wrap(op, r.table.Name, err)
	}
	if len(cols) == 0 {
		return nil
	}

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		r.table.Name, strings.Join(sets, ", "), r.table.PrimaryKey)
	args = append(args, pk)

	return r.withTx(ctx, op, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		return err
	})
}

// Delete removes the row with the given primary key. A missing row is not an error.
func (r *Repository[T]) Delete(ctx context.Context, pk any) error {
	const op = "Delete"

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", r.table.Name, r.table.PrimaryKey)

	return r.withTx(ctx, op, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(query), pk)
		return err
	})
}

// Upsert inserts the row or, when a row with the same primary key exists,
// overwrites it with fields in a single statement. fields must carry the primary key.
func (r *Repository[T]) Upsert(ctx context.Context, fields Fields) error {
	const op = "Upsert"

	if _, ok := fields[r.table.PrimaryKey]; !ok {
		return wrap(op, r.table.Name, ErrMissingKey)
	}
	cols, args, err := r.split(fields)
	if err != nil {
		return wrap(op, r.table.Name, err)
	}

	var updates []string
	for _, col := range cols {
		if col != r.table.PrimaryKey {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}
	conflict := "DO NOTHING"
	if len(updates) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		r.table.Name, strings.Join(cols, ", "), placeholders(len(cols)), r.table.PrimaryKey, conflict)

	return r.withTx(ctx, op, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		return err
	})
}

func (r *Repository[T]) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrap(op, r.table.Name, fmt.Errorf("begin: %w", err))
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		r.logger.Debug("Statement failed",
			zap.String("op", op),
			zap.Error(err))
		return wrap(op, r.table.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return wrap(op, r.table.Name, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (r *Repository[T]) split(fields Fields) ([]string, []any, error) {
	cols := fields.columns()
	args := make([]any, len(cols))
	for i, col := range cols {
		if !r.table.HasColumn(col) {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
		args[i] = fields[col]
	}
	return cols, args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
