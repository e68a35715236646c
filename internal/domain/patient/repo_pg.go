package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type patientRepoPG struct {
	pool *pgxpool.Pool
}

// NewPatientRepoPG returns a Repository backed by the patients table.
// Insertion order is the seq column.
func NewPatientRepoPG(pool *pgxpool.Pool) Repository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `name, last_name, ci, blood_group, code`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO patients (`+patientCols+`) VALUES ($1, $2, $3, $4, $5)`,
		p.Name, p.LastName, p.CI, p.BloodGroup, p.Code,
	)
	if err != nil {
		return fmt.Errorf("insert patient %s: %w", p.CI, err)
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	patients, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Patient])
	if err != nil {
		return nil, fmt.Errorf("scan patients: %w", err)
	}
	if len(patients) == 0 {
		return nil, ErrEmptyList
	}
	return patients, nil
}

func (r *patientRepoPG) GetByCI(ctx context.Context, ci string) (*Patient, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+patientCols+` FROM patients WHERE ci = $1 ORDER BY seq LIMIT 1`, ci)
	if err != nil {
		return nil, fmt.Errorf("get patient %s: %w", ci, err)
	}
	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[Patient])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(ci)
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient %s: %w", ci, err)
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, ci, name, lastName string) (*Patient, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE patients SET name = $2, last_name = $3
		WHERE seq = (SELECT seq FROM patients WHERE ci = $1 ORDER BY seq LIMIT 1)
		RETURNING `+patientCols,
		ci, name, lastName,
	)
	if err != nil {
		return nil, fmt.Errorf("update patient %s: %w", ci, err)
	}
	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[Patient])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(ci)
	}
	if err != nil {
		return nil, fmt.Errorf("scan updated patient %s: %w", ci, err)
	}
	return p, nil
}

func (r *patientRepoPG) Delete(ctx context.Context, ci string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE ci = $1`, ci)
	if err != nil {
		return fmt.Errorf("delete patient %s: %w", ci, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(ci)
	}
	return nil
}
