package patients

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostgresRepository persists patients in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a Postgres-backed repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &Patient{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Mobile:    req.Mobile,
		Age:       req.Age,
		Gender:    req.Gender,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patients (id, name, mobile, age, gender, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Mobile, p.Age, nullableGender(p.Gender), p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("patients: insert: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	var gender sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, mobile, age, gender, created_at
		FROM patients WHERE id = $1`, id).Scan(
		&p.ID, &p.Name, &p.Mobile, &p.Age, &gender, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patients: get: %w", err)
	}
	p.Gender = Gender(gender.String)
	return &p, nil
}

func (r *PostgresRepository) Search(ctx context.Context, query string, limit int) ([]*Patient, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows *sql.Rows
	var err error
	if mobile, mErr := NormalizeMobile(query); mErr == nil {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, name, mobile, age, gender, created_at
			FROM patients WHERE mobile = $1 ORDER BY created_at ASC LIMIT $2`, mobile, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, name, mobile, age, gender, created_at
			FROM patients WHERE lower(name) LIKE lower($1) || '%' ORDER BY created_at ASC LIMIT $2`,
			strings.TrimSpace(query), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("patients: search: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		var p Patient
		var gender sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Mobile, &p.Age, &gender, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("patients: scan: %w", err)
		}
		p.Gender = Gender(gender.String)
		out = append(out, &p)
	}
	if out == nil {
		out = []*Patient{}
	}
	return out, rows.Err()
}

func nullableGender(g Gender) sql.NullString {
	if g == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(g), Valid: true}
}
