package stockevent

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists processed stock events in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const insertEventSQL = `
INSERT INTO stock_events (source_key, facility_id, program_id, orderable_id, quantity, occurred_date, signature, document_number)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (source_key) DO NOTHING`

// Insert stores the envelope's event. A repeated source key is a no-op and reports false.
func (r *Repository) Insert(ctx context.Context, env Envelope) (bool, error) {
	evt := env.Event
	tag, err := r.pool.Exec(ctx, insertEventSQL,
		env.SourceKey,
		evt.FacilityID,
		evt.ProgramID,
		evt.OrderableID,
		evt.Quantity,
		pgtype.Timestamptz{Time: evt.OccurredDate, Valid: !evt.OccurredDate.IsZero()},
		pgtype.Text{String: evt.Signature, Valid: evt.Signature != ""},
		pgtype.Text{String: evt.DocumentNumber, Valid: evt.DocumentNumber != ""},
	)
	if err != nil {
		return false, fmt.Errorf("stockevent: insert: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
