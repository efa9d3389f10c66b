package appointments

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresRepository persists appointments in Postgres
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a Postgres-backed repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (id, patient_id, name, mobile_number, doctor_id, scheduled_at, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, nullable(a.PatientID), a.Name, a.Mobile, nullable(a.DoctorID),
		a.ScheduledAt, a.Status, a.Reason, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("appointments: create: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	a, err := scanAppointment(r.db.QueryRowContext(ctx, `
		SELECT id, patient_id, name, mobile_number, doctor_id, scheduled_at, status, reason, created_at, updated_at
		FROM appointments WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("appointments: update status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("appointments: update status: %w", err)
	}
	if rows == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByDate(ctx context.Context, dayStart, dayEnd int64) ([]*Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, patient_id, name, mobile_number, doctor_id, scheduled_at, status, reason, created_at, updated_at
		FROM appointments
		WHERE scheduled_at >= to_timestamp($1) AND scheduled_at < to_timestamp($2)
		ORDER BY scheduled_at ASC`, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	out := make([]*Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var (
		a         Appointment
		patientID sql.NullString
		doctorID  sql.NullString
	)
	err := row.Scan(&a.ID, &patientID, &a.Name, &a.Mobile, &doctorID,
		&a.ScheduledAt, &a.Status, &a.Reason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.PatientID = patientID.String
	a.DoctorID = doctorID.String
	return &a, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
