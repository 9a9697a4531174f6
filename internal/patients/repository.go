package patients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentora/dentora/internal/odontogram"
)

var ErrNotFound = errors.New("patient not found")

// Repository is the persistence contract of the patient registry.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	Get(ctx context.Context, id int64) (*Patient, error)
	List(ctx context.Context, search string, limit, offset int) ([]Patient, error)
	Update(ctx context.Context, p *Patient) error
	Baseline(ctx context.Context, patientID int64) (odontogram.State, error)
	SetBaseline(ctx context.Context, patientID int64, state odontogram.State) error
}

// PGRepository provides PostgreSQL backed persistence for patients. The
// dental baseline is a jsonb column keyed by FDI tooth number.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const patientColumns = `id, name, email, phone, birth_date, comment, baseline, is_active, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, p *Patient) error {
	baseline, err := encodeBaseline(p.Baseline)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO patients (name, email, phone, birth_date, comment, baseline, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, p.Name, p.Email, p.Phone, p.BirthDate, p.Comment, baseline, p.IsActive, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

func (r *PGRepository) List(ctx context.Context, search string, limit, offset int) ([]Patient, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name, id
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, p *Patient) error {
	baseline, err := encodeBaseline(p.Baseline)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE patients
		SET name = $2, email = $3, phone = $4, birth_date = $5, comment = $6,
		    baseline = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Name, p.Email, p.Phone, p.BirthDate, p.Comment, baseline, p.IsActive, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Baseline(ctx context.Context, patientID int64) (odontogram.State, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT baseline FROM patients WHERE id = $1`, patientID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	return decodeBaseline(raw)
}

func (r *PGRepository) SetBaseline(ctx context.Context, patientID int64, state odontogram.State) error {
	baseline, err := encodeBaseline(state)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE patients SET baseline = $2, updated_at = now() WHERE id = $1`, patientID, baseline)
	if err != nil {
		return fmt.Errorf("set baseline: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var raw []byte
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.BirthDate, &p.Comment,
		&raw, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	p.Baseline, err = decodeBaseline(raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// JSON object keys are strings, so the baseline is stored keyed by the
// decimal FDI number and converted on the way in and out.
func encodeBaseline(state odontogram.State) ([]byte, error) {
	if len(state) == 0 {
		return []byte("{}"), nil
	}
	keyed := make(map[string]odontogram.ToothState, len(state))
	for tooth, st := range state {
		keyed[strconv.Itoa(tooth)] = st
	}
	raw, err := json.Marshal(keyed)
	if err != nil {
		return nil, fmt.Errorf("encode baseline: %w", err)
	}
	return raw, nil
}

func decodeBaseline(raw []byte) (odontogram.State, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var keyed map[string]odontogram.ToothState
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, fmt.Errorf("decode baseline: %w", err)
	}
	if len(keyed) == 0 {
		return nil, nil
	}
	state := make(odontogram.State, len(keyed))
	for key, st := range keyed {
		tooth, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("decode baseline: bad tooth key %q", key)
		}
		state[tooth] = st
	}
	return state, nil
}
