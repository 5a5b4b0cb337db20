package portal

import (
	"context"
	"fmt"

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

// Repository is the Postgres-backed DataSource.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("portal: pgx pool required")
	}
	return &Repository{pool: pool}
}

// ListProjects returns the client's projects, newest first.
func (r *Repository) ListProjects(ctx context.Context, clientID string) ([]Project, error) {
	query := `
		SELECT id, client_id, name, status, progress, deadline, created_at
		FROM projects
		WHERE client_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("portal: list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Status, &p.Progress, &p.Deadline, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("portal: scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("portal: list projects: %w", err)
	}
	return out, nil
}

// ListInvoices returns the client's invoices, newest first.
func (r *Repository) ListInvoices(ctx context.Context, clientID string) ([]Invoice, error) {
	query := `
		SELECT id, client_id, number, amount_cents, status, due_date, created_at
		FROM invoices
		WHERE client_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("portal: list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.ClientID, &inv.Number, &inv.AmountCents, &inv.Status, &inv.DueDate, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("portal: scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("portal: list invoices: %w", err)
	}
	return out, nil
}

// ListMessages returns the client's messages, newest first.
func (r *Repository) ListMessages(ctx context.Context, clientID string) ([]Message, error) {
	query := `
		SELECT id, client_id, sender, subject, body, is_read, created_at
		FROM messages
		WHERE client_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("portal: list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ClientID, &m.Sender, &m.Subject, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("portal: scan message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("portal: list messages: %w", err)
	}
	return out, nil
}

// MarkMessageRead flips one message's read receipt, scoped to its
// owner.
func (r *Repository) MarkMessageRead(ctx context.Context, clientID, messageID string) error {
	query := `
		UPDATE messages SET is_read = TRUE
		WHERE id = $1 AND client_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, messageID, clientID)
	if err != nil {
		return fmt.Errorf("portal: mark message read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}
