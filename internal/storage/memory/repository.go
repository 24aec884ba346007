// Package memory holds an in-process implementation of the record store used
// by tests and by the memory:// development mode.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/jmoiron/sqlx/reflectx"

	"recipe-bot/internal/storage"
)

var mapper = reflectx.NewMapper("db")

type Repository[T storage.Record] struct {
	mu    sync.Mutex
	table storage.Table
	rows  []T
	seq   int64
}

func NewRepository[T storage.Record]() *Repository[T] {
	var zero T
	return &Repository[T]{table: zero.Table()}
}

func (r *Repository[T]) Create(_ context.Context, fields storage.Fields) error {
	if len(fields) == 0 {
		return &storage.Error{Op: "Create", Table: r.table.Name, Err: storage.ErrNoFields}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insert("Create", fields)
}

func (r *Repository[T]) Read(_ context.Context, user int64) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, 0)
	for _, row := range r.rows {
		if r.field(&row, r.table.Owner).Int() == user {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *Repository[T]) Update(_ context.Context, pk any, fields storage.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, err := r.find(pk)
	if err != nil {
		return &storage.Error{Op: "Update", Table: r.table.Name, Err: err}
	}
	if i < 0 {
		return nil
	}
	updated := r.rows[i]
	if err := r.apply(&updated, fields); err != nil {
		return &storage.Error{Op: "Update", Table: r.table.Name, Err: err}
	}
	r.rows[i] = updated
	return nil
}

func (r *Repository[T]) Delete(_ context.Context, pk any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, err := r.find(pk)
	if err != nil {
		return &storage.Error{Op: "Delete", Table: r.table.Name, Err: err}
	}
	if i >= 0 {
		r.rows = append(r.rows[:i], r.rows[i+1:]...)
	}
	return nil
}

func (r *Repository[T]) Upsert(_ context.Context, fields storage.Fields) error {
	pk, ok := fields[r.table.PrimaryKey]
	if !ok {
		return &storage.Error{Op: "Upsert", Table: r.table.Name, Err: storage.ErrMissingKey}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i, err := r.find(pk)
	if err != nil {
		return &storage.Error{Op: "Upsert", Table: r.table.Name, Err: err}
	}
	if i < 0 {
		return r.insert("Upsert", fields)
	}
	updated := r.rows[i]
	if err := r.apply(&updated, fields); err != nil {
		return &storage.Error{Op: "Upsert", Table: r.table.Name, Err: err}
	}
	r.rows[i] = updated
	return nil
}

// insert must be called with r.mu held.
func (r *Repository[T]) insert(op string, fields storage.Fields) error {
	var row T
	if err := r.apply(&row, fields); err != nil {
		return &storage.Error{Op: op, Table: r.table.Name, Err: err}
	}
	if r.table.Generated {
		r.seq++
		r.field(&row, r.table.PrimaryKey).SetInt(r.seq)
	}
	r.rows = append(r.rows, row)
	return nil
}

func (r *Repository[T]) find(pk any) (int, error) {
	for i := range r.rows {
		key := r.field(&r.rows[i], r.table.PrimaryKey)
		want, err := convert(pk, key.Type())
		if err != nil {
			return -1, err
		}
		if key.Interface() == want.Interface() {
			return i, nil
		}
	}
	return -1, nil
}

func (r *Repository[T]) apply(row *T, fields storage.Fields) error {
	for col, val := range fields {
		if !r.table.HasColumn(col) {
			return fmt.Errorf("%w: %q", storage.ErrUnknownColumn, col)
		}
		dst := r.field(row, col)
		v, err := convert(val, dst.Type())
		if err != nil {
			return err
		}
		dst.Set(v)
	}
	return nil
}

func (r *Repository[T]) field(row *T, col string) reflect.Value {
	return mapper.FieldByName(reflect.ValueOf(row).Elem(), col)
}

func convert(val any, to reflect.Type) (reflect.Value, error) {
	v := reflect.ValueOf(val)
	if !v.IsValid() || !v.Type().ConvertibleTo(to) || (to.Kind() == reflect.String) != (v.Kind() == reflect.String) {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", val, to)
	}
	return v.Convert(to), nil
}
