package postgres

import (
	"context"
	"fmt"

	"meterload/domain/meter"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// insertChunk bounds the bind parameters of one batched INSERT; five binds
// per reading keeps chunks well under the wire-protocol limit.
const insertChunk = 500

// ReadingRepository appends normalized readings to the target time-series
// table. The table is taken as-is: the loader never creates or alters schema.
type ReadingRepository struct {
	db     *sqlx.DB
	target string
	insert string
}

// NewReadingRepository creates a repository writing to schema.table. An empty
// schema leaves the table name unqualified.
func NewReadingRepository(db *sqlx.DB, schema, table string) *ReadingRepository {
	target := pq.QuoteIdentifier(table)
	if schema != "" {
		target = pq.QuoteIdentifier(schema) + "." + target
	}
	return &ReadingRepository{
		db:     db,
		target: target,
		insert: fmt.Sprintf(
			`INSERT INTO %s (time, field_name, topic, value, quality_code)
			 VALUES (:time, :field_name, :topic, :value, :quality_code)`, target),
	}
}

// Target returns the qualified table reference, for status reporting.
func (r *ReadingRepository) Target() string {
	return r.target
}

// Append writes the batch within a single transaction and returns the number
// of rows inserted. On any error the transaction is rolled back and nothing
// is kept.
func (r *ReadingRepository) Append(ctx context.Context, readings []meter.Reading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(readings); start += insertChunk {
		end := start + insertChunk
		if end > len(readings) {
			end = len(readings)
		}
		if _, err := tx.NamedExecContext(ctx, r.insert, readings[start:end]); err != nil {
			return 0, fmt.Errorf("failed to insert readings into %s: %w", r.target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(readings), nil
}
