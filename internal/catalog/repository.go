package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("catalog item not found")

// Repository provides PostgreSQL backed access to the treatment catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `id, code, name, unit, price_gross, currency, kind,
	allowed_teeth, milk_tooth_only, max_teeth_per_arch, layer_spec, is_active,
	created_at, updated_at`

// Get loads one catalog item by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE id = $1`, id)
	return scanItem(row)
}

// GetByCode loads one catalog item by its clinic-visible code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE code = $1`, code)
	return scanItem(row)
}

// List returns active catalog items ordered by code.
func (r *Repository) List(ctx context.Context, includeInactive bool) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM catalog_items`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	var allowed []int32
	var layerSpec string
	err := row.Scan(
		&item.ID, &item.Code, &item.Name, &item.Unit, &item.PriceGross,
		&item.Currency, &item.Kind, &allowed, &item.MilkToothOnly,
		&item.MaxTeethPerArch, &layerSpec, &item.IsActive,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	for _, n := range allowed {
		item.AllowedTeeth = append(item.AllowedTeeth, int(n))
	}
	item.LayerSpec = ParseLayerSpec(layerSpec)
	return &item, nil
}
