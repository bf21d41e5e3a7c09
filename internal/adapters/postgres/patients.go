package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

const patientColumns = `id, name, email, phone, nik, bpjs, bpjs_number, address, gender, birthdate, created_at`

func (r *Repository) CreatePatient(ctx context.Context, p domain.Patient) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO patients (id, name, email, phone, nik, bpjs, bpjs_number, address, gender, birthdate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID, p.Name, p.Email, p.Phone, p.NIK, p.BPJS, p.BPJSNumber, p.Address, p.Gender, p.Birthdate)
	return mapPgError(err)
}

func (r *Repository) GetPatient(ctx context.Context, id uuid.UUID) (*domain.Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+patientColumns+` FROM patients WHERE id = $1
	`, id)
	p, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) ListPatients(ctx context.Context, search string) ([]domain.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR nik ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []domain.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, *p)
	}
	return patients, rows.Err()
}

func (r *Repository) UpdatePatient(ctx context.Context, p domain.Patient) error {
	result, err := r.db.Exec(ctx, `
		UPDATE patients
		SET name = $2, email = $3, phone = $4, nik = $5, bpjs = $6, bpjs_number = $7, address = $8, gender = $9, birthdate = $10
		WHERE id = $1
	`, p.ID, p.Name, p.Email, p.Phone, p.NIK, p.BPJS, p.BPJSNumber, p.Address, p.Gender, p.Birthdate)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeletePatient(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPatient(row pgx.Row) (*domain.Patient, error) {
	var p domain.Patient
	var birthdate sql.NullTime
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.NIK, &p.BPJS, &p.BPJSNumber, &p.Address, &p.Gender, &birthdate, &p.CreatedAt); err != nil {
		return nil, err
	}
	if birthdate.Valid {
		t := birthdate.Time
		p.Birthdate = &t
	}
	return &p, nil
}
