package invoicing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("invoice not found")

// Repository provides PostgreSQL backed access to invoice records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invoiceColumns = `id, quote_id, number, status, type, total_gross, currency, issued_at`

// ListByQuote returns a quote's invoice records in issue order.
func (r *Repository) ListByQuote(ctx context.Context, quoteID int64) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE quote_id = $1 ORDER BY issued_at, id`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("invoicing: list by quote: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.QuoteID, &inv.Number, &inv.Status, &inv.Type, &inv.TotalGross, &inv.Currency, &inv.IssuedAt); err != nil {
			return nil, fmt.Errorf("invoicing: scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Get loads one invoice record.
func (r *Repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	var inv Invoice
	err := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id).
		Scan(&inv.ID, &inv.QuoteID, &inv.Number, &inv.Status, &inv.Type, &inv.TotalGross, &inv.Currency, &inv.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("invoicing: get invoice: %w", err)
	}
	return &inv, nil
}

// Record upserts an invoice record reported by the provider integration.
func (r *Repository) Record(ctx context.Context, inv Invoice) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status
	`, inv.ID, inv.QuoteID, inv.Number, inv.Status, inv.Type, inv.TotalGross, inv.Currency, inv.IssuedAt)
	if err != nil {
		return fmt.Errorf("invoicing: record invoice: %w", err)
	}
	return nil
}
