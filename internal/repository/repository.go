// Package repository performs the bulk table writes and reads of a load.
package repository

import (
	"context"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/shopdata/repository")

// Repository wraps a connection or an open transaction.
type Repository struct {
	db bun.IDB
}

// New returns a Repository issuing queries on db.
func New(db bun.IDB) *Repository {
	return &Repository{db: db}
}

// InsertBatches inserts rows into table in chunks of size and returns how many
// rows were written before the first failure.
func InsertBatches[T any](ctx context.Context, r *Repository, table string, rows []T, size int) (int, error) {
	ctx, span := repoTracer.Start(ctx, "Repository.InsertBatches", trace.WithAttributes(
		attribute.String("db.table", table),
		attribute.Int("rows", len(rows)),
	))
	defer span.End()

	size = max(size, 1)
	for start := 0; start < len(rows); start += size {
		batch := rows[start:min(start+size, len(rows))]
		if _, err := r.db.NewInsert().Model(&batch).Exec(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "insert failed")
			return start, err
		}
	}
	return len(rows), nil
}

// Count returns the number of rows in table.
func (r *Repository) Count(ctx context.Context, table string) (int, error) {
	ctx, span := repoTracer.Start(ctx, "Repository.Count", trace.WithAttributes(attribute.String("db.table", table)))
	defer span.End()

	n, err := r.db.NewSelect().Table(table).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
	}
	return n, err
}
