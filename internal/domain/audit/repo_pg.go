package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webqx/telehealth/internal/platform/db"
)

// Window bounds a time-range query.
type Window struct {
	Days int
}

func (w Window) Cutoff(now time.Time) time.Time {
	days := w.Days
	if days <= 0 {
		days = 30
	}
	return now.AddDate(0, 0, -days)
}

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const entryCols = `id, clinic_id, session_id, event_type, actor_id,
	old_value, new_value, reason, source_ip, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.ClinicID, &e.SessionID, &e.EventType, &e.ActorID,
		&e.OldValue, &e.NewValue, &e.Reason, &e.SourceIP, &e.CreatedAt,
	)
	return &e, err
}

// Insert appends one entry. When the calling service opened a transaction,
// the insert joins it, so a failed insert aborts the surrounding mutation.
func (r *RepoPG) Insert(ctx context.Context, e *Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_entry (`+entryCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.ClinicID, e.SessionID, e.EventType, e.ActorID,
		e.OldValue, e.NewValue, e.Reason, e.SourceIP, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *RepoPG) ListByClinic(ctx context.Context, clinicID string, since Window, limit, offset int) ([]*Entry, int, error) {
	cutoff := since.Cutoff(time.Now().UTC())

	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM audit_entry
		WHERE clinic_id = $1 AND created_at >= $2`,
		clinicID, cutoff,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+entryCols+` FROM audit_entry
		WHERE clinic_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		clinicID, cutoff, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
