package visits

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresRepository persists visits in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a Postgres-backed repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const visitColumns = `id, patient_id, doctor_id, date, status, notes, prescription_id, visit_reason, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, v *Visit) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO visits (id, patient_id, doctor_id, date, status, notes, prescription_id, visit_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.PatientID, nullable(v.DoctorID), v.Date, string(v.Status), v.Notes,
		nullable(v.PrescriptionID), v.VisitReason, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("visits: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Visit, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = $1`, id)
	v, err := scanVisit(row)
	if err == sql.ErrNoRows {
		return nil, ErrVisitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("visits: get: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE visits SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("visits: update status: %w", err)
	}
	return checkFound(res)
}

func (r *PostgresRepository) UpdateNotes(ctx context.Context, id string, notes string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE visits SET notes = $2, updated_at = $3 WHERE id = $1`,
		id, notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("visits: update notes: %w", err)
	}
	return checkFound(res)
}

func (r *PostgresRepository) SetPrescriptionID(ctx context.Context, id string, prescriptionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE visits SET prescription_id = $2, updated_at = $3
		WHERE id = $1 AND (prescription_id IS NULL OR prescription_id = $2)`,
		id, prescriptionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("visits: set prescription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("visits: set prescription: %w", err)
	}
	if n == 0 {
		// Either the visit is missing or it is bound to another prescription.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrAlreadyBound
	}
	return nil
}

func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string) ([]*Visit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+visitColumns+` FROM visits WHERE patient_id = $1 ORDER BY date ASC, created_at ASC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("visits: list by patient: %w", err)
	}
	return collectVisits(rows)
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status) ([]*Visit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+visitColumns+` FROM visits WHERE status = $1 ORDER BY date ASC, created_at ASC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("visits: list by status: %w", err)
	}
	return collectVisits(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisit(row rowScanner) (*Visit, error) {
	var v Visit
	var doctorID, prescriptionID sql.NullString
	var status string
	if err := row.Scan(&v.ID, &v.PatientID, &doctorID, &v.Date, &status, &v.Notes,
		&prescriptionID, &v.VisitReason, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.DoctorID = doctorID.String
	v.PrescriptionID = prescriptionID.String
	v.Status = Status(status)
	return &v, nil
}

func collectVisits(rows *sql.Rows) ([]*Visit, error) {
	defer rows.Close()
	var out []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("visits: scan: %w", err)
		}
		out = append(out, v)
	}
	if out == nil {
		out = []*Visit{}
	}
	return out, rows.Err()
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVisitNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
