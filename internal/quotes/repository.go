package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentora/dentora/internal/platform/db"
)

var (
	ErrNotFound          = errors.New("quote not found")
	ErrNumberTaken       = errors.New("quote number already taken")
	ErrLineNotFound      = errors.New("quote line not found")
	ErrNotEditable       = errors.New("quote is not editable")
	ErrNotDeletable      = errors.New("quote cannot be deleted in its current status")
	ErrInvalidTransition = errors.New("status transition not applicable")
)

// Repository is the persistence contract of the quote engine. Mutate is the
// single mutation entry point: implementations must serialize concurrent
// writers to the same quote.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	Get(ctx context.Context, id int64) (*Quote, error)
	ListByPatient(ctx context.Context, patientID int64, includeDeleted bool) ([]Quote, error)
	Mutate(ctx context.Context, id int64, fn func(q *Quote) error) (*Quote, error)
}

// PGRepository provides PostgreSQL backed persistence for quotes.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const quoteColumns = `id, number, patient_id, doctor_name, comment, kind, status,
	is_deleted, currency, global_discount_type, global_discount_value,
	expected_treatments, last_status_change_at, created_at, updated_at`

// Create persists a freshly built quote aggregate.
func (r *PGRepository) Create(ctx context.Context, q *Quote) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO quotes (`+quoteColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`, q.ID, q.Number, q.PatientID, q.DoctorName, q.Comment, q.Kind, q.Status,
			q.IsDeleted, q.Currency, q.GlobalDiscount.Type, q.GlobalDiscount.Value,
			q.ExpectedTreatments, q.LastStatusChangeAt, q.CreatedAt, q.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrNumberTaken
			}
			return fmt.Errorf("quotes: insert quote: %w", err)
		}
		if err := insertItems(ctx, tx, q); err != nil {
			return err
		}
		return insertNewEvents(ctx, tx, q)
	})
}

// Get loads the full quote aggregate.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Quote, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	q, err := scanQuote(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, r.pool, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ListByPatient returns a patient's quotes, newest first, items and events
// omitted.
func (r *PGRepository) ListByPatient(ctx context.Context, patientID int64, includeDeleted bool) ([]Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE patient_id = $1`
	if !includeDeleted {
		query += ` AND NOT is_deleted`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("quotes: list by patient: %w", err)
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

// Mutate loads the quote inside a transaction with a row lock, applies fn and
// writes the aggregate back. The row lock serializes writers per quote id; a
// rejected mutation rolls back leaving the prior state intact.
func (r *PGRepository) Mutate(ctx context.Context, id int64, fn func(q *Quote) error) (*Quote, error) {
	var result *Quote
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 FOR UPDATE`, id)
		q, err := scanQuote(row)
		if err != nil {
			return err
		}
		if err := r.loadChildren(ctx, tx, q); err != nil {
			return err
		}
		persistedEvents := len(q.Events)

		if err := fn(q); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE quotes SET doctor_name = $2, comment = $3, status = $4,
				is_deleted = $5, global_discount_type = $6, global_discount_value = $7,
				expected_treatments = $8, last_status_change_at = $9, updated_at = NOW()
			WHERE id = $1
		`, q.ID, q.DoctorName, q.Comment, q.Status, q.IsDeleted,
			q.GlobalDiscount.Type, q.GlobalDiscount.Value,
			q.ExpectedTreatments, q.LastStatusChangeAt)
		if err != nil {
			return fmt.Errorf("quotes: update quote: %w", err)
		}

		// Items are rewritten wholesale; line removal is permanent.
		if _, err := tx.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, q.ID); err != nil {
			return fmt.Errorf("quotes: clear items: %w", err)
		}
		if err := insertItems(ctx, tx, q); err != nil {
			return err
		}

		// Events are append-only: persisted entries are never touched.
		if err := insertEvents(ctx, tx, q, persistedEvents); err != nil {
			return err
		}
		result = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PGRepository) loadChildren(ctx context.Context, conn queryer, q *Quote) error {
	rows, err := conn.Query(ctx, `
		SELECT line_id, catalog_item_id, name, unit, unit_price_gross, currency,
			qty, discount_type, discount_value, tooth_num, treated_area,
			selected_surfaces, selected_material, resolved_layers, treatment_session
		FROM quote_items WHERE quote_id = $1 ORDER BY position
	`, q.ID)
	if err != nil {
		return fmt.Errorf("quotes: load items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it QuoteItem
		err := rows.Scan(&it.LineID, &it.CatalogItemID, &it.Name, &it.Unit,
			&it.UnitPriceGross, &it.Currency, &it.Qty, &it.Discount.Type,
			&it.Discount.Value, &it.ToothNum, &it.TreatedArea,
			&it.SelectedSurfaces, &it.SelectedMaterial, &it.ResolvedLayers,
			&it.TreatmentSession)
		if err != nil {
			return fmt.Errorf("quotes: scan item: %w", err)
		}
		q.Items = append(q.Items, it)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	eventRows, err := conn.Query(ctx, `
		SELECT id, type, at, doctor_name, invoice_id, invoice_number,
			invoice_amount, invoice_currency, invoice_type
		FROM quote_events WHERE quote_id = $1 ORDER BY position
	`, q.ID)
	if err != nil {
		return fmt.Errorf("quotes: load events: %w", err)
	}
	defer eventRows.Close()
	for eventRows.Next() {
		var ev QuoteEvent
		err := eventRows.Scan(&ev.ID, &ev.Type, &ev.At, &ev.DoctorName,
			&ev.InvoiceID, &ev.InvoiceNumber, &ev.InvoiceAmount,
			&ev.InvoiceCurrency, &ev.InvoiceType)
		if err != nil {
			return fmt.Errorf("quotes: scan event: %w", err)
		}
		q.Events = append(q.Events, ev)
	}
	return eventRows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, q *Quote) error {
	for pos, it := range q.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO quote_items (quote_id, position, line_id, catalog_item_id,
				name, unit, unit_price_gross, currency, qty, discount_type,
				discount_value, tooth_num, treated_area, selected_surfaces,
				selected_material, resolved_layers, treatment_session)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`, q.ID, pos, it.LineID, it.CatalogItemID, it.Name, it.Unit,
			it.UnitPriceGross, it.Currency, it.Qty, it.Discount.Type,
			it.Discount.Value, it.ToothNum, it.TreatedArea, it.SelectedSurfaces,
			it.SelectedMaterial, it.ResolvedLayers, it.TreatmentSession)
		if err != nil {
			return fmt.Errorf("quotes: insert item: %w", err)
		}
	}
	return nil
}

func insertNewEvents(ctx context.Context, tx pgx.Tx, q *Quote) error {
	return insertEvents(ctx, tx, q, 0)
}

func insertEvents(ctx context.Context, tx pgx.Tx, q *Quote, from int) error {
	for pos := from; pos < len(q.Events); pos++ {
		ev := q.Events[pos]
		_, err := tx.Exec(ctx, `
			INSERT INTO quote_events (quote_id, position, id, type, at, doctor_name,
				invoice_id, invoice_number, invoice_amount, invoice_currency, invoice_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, q.ID, pos, ev.ID, ev.Type, ev.At, ev.DoctorName, ev.InvoiceID,
			ev.InvoiceNumber, ev.InvoiceAmount, ev.InvoiceCurrency, ev.InvoiceType)
		if err != nil {
			return fmt.Errorf("quotes: insert event: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.Number, &q.PatientID, &q.DoctorName, &q.Comment,
		&q.Kind, &q.Status, &q.IsDeleted, &q.Currency, &q.GlobalDiscount.Type,
		&q.GlobalDiscount.Value, &q.ExpectedTreatments, &q.LastStatusChangeAt,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("quotes: scan quote: %w", err)
	}
	return &q, nil
}
