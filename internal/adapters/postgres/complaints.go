package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
)

const complaintColumns = `id, patient_id, title, category, description, status, response, responded_by, responded_at, created_at`

type ComplaintFilter struct {
	PatientID *uuid.UUID
	Status    domain.ComplaintStatus
	Category  domain.ComplaintCategory
}

func (r *Repository) CreateComplaint(ctx context.Context, c domain.Complaint) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO complaints (id, patient_id, title, category, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.PatientID, c.Title, c.Category, c.Description, c.Status)
	return err
}

func (r *Repository) GetComplaint(ctx context.Context, id uuid.UUID) (*domain.Complaint, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+complaintColumns+` FROM complaints WHERE id = $1
	`, id)
	c, err := scanComplaint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) ListComplaints(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE 1=1`
	args := []interface{}{}
	n := 0
	next := func() string {
		n++
		return fmt.Sprintf("$%d", n)
	}
	if filter.PatientID != nil {
		query += ` AND patient_id = ` + next()
		args = append(args, *filter.PatientID)
	}
	if filter.Status != "" {
		query += ` AND status = ` + next()
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += ` AND category = ` + next()
		args = append(args, filter.Category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []domain.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *c)
	}
	return complaints, rows.Err()
}

// RespondComplaint records a staff response and moves the complaint to
// the given status.
func (r *Repository) RespondComplaint(ctx context.Context, id uuid.UUID, status domain.ComplaintStatus, response string, responderID uuid.UUID, respondedAt time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE complaints
		SET status = $2, response = $3, responded_by = $4, responded_at = $5
		WHERE id = $1
	`, id, status, response, responderID, respondedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateComplaintStatus(ctx context.Context, id uuid.UUID, status domain.ComplaintStatus) error {
	result, err := r.db.Exec(ctx, `
		UPDATE complaints SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteComplaint(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM complaints WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var c domain.Complaint
	var response sql.NullString
	var respondedBy uuid.NullUUID
	var respondedAt sql.NullTime
	if err := row.Scan(&c.ID, &c.PatientID, &c.Title, &c.Category, &c.Description, &c.Status, &response, &respondedBy, &respondedAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	if response.Valid {
		c.Response = &response.String
	}
	if respondedBy.Valid {
		id := respondedBy.UUID
		c.RespondedBy = &id
	}
	c.RespondedAt = nullTimePtr(respondedAt)
	return &c, nil
}
