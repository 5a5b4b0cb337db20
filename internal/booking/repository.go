package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs, kept
// narrow so pgxmock can stand in during tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists bookings in Postgres.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &Repository{pool: pool}
}

// CreateBooking inserts a confirmed booking row.
func (r *Repository) CreateBooking(ctx context.Context, ownerID string, startsAt time.Time, callType CallType, slot string) (*Record, error) {
	id := uuid.New()
	query := `
		INSERT INTO bookings (id, client_id, starts_at, call_type, slot, status)
		VALUES ($1, $2, $3, $4, $5, 'confirmed')
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		ownerID,
		startsAt.UTC(),
		string(callType),
		slot,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("booking: insert failed: %w", err)
	}

	return &Record{
		ID:        id.String(),
		OwnerID:   ownerID,
		StartsAt:  startsAt,
		CallType:  callType,
		Slot:      slot,
		Status:    "confirmed",
		CreatedAt: createdAt,
	}, nil
}

// GetByID fetches a booking scoped to its owner.
func (r *Repository) GetByID(ctx context.Context, ownerID, id string) (*Record, error) {
	query := `
		SELECT id, client_id, starts_at, call_type, slot, status, created_at
		FROM bookings
		WHERE id = $1 AND client_id = $2
	`
	row := r.pool.QueryRow(ctx, query, id, ownerID)
	var rec Record
	var callType string
	if err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.StartsAt,
		&callType,
		&rec.Slot,
		&rec.Status,
		&rec.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("booking: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("booking: select failed: %w", err)
	}
	rec.CallType = CallType(callType)
	return &rec, nil
}
