package prescriptions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/clinicdesk/internal/visits"
)

// PostgresRepository persists prescriptions in Postgres. Creation locks the
// visit row so two concurrent creates for one visit cannot both succeed.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a Postgres-backed repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateForVisit(ctx context.Context, visitID string, p *Prescription) (*Prescription, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("prescriptions: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT prescription_id FROM visits WHERE id = $1 FOR UPDATE`, visitID).Scan(&existing)
	if err == sql.ErrNoRows {
		return nil, visits.ErrVisitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("prescriptions: lock visit: %w", err)
	}
	if existing.Valid && existing.String != "" {
		return nil, visits.ErrAlreadyBound
	}

	now := time.Now().UTC()
	stored := clonePrescription(p)
	stored.ID = uuid.New().String()
	stored.VisitID = visitID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	assignMedicineIDs(stored.Medicines)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO prescriptions (id, visit_id, follow_up_value, follow_up_unit, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		stored.ID, visitID, followUpValue(stored.FollowUp), followUpUnit(stored.FollowUp),
		stored.Notes, now, now); err != nil {
		return nil, fmt.Errorf("prescriptions: insert: %w", err)
	}
	if err := insertItems(ctx, tx, stored); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE visits SET prescription_id = $2, updated_at = $3 WHERE id = $1`,
		visitID, stored.ID, now); err != nil {
		return nil, fmt.Errorf("prescriptions: link visit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("prescriptions: commit: %w", err)
	}
	return stored, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, p *Prescription) (*Prescription, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("prescriptions: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var visitID string
	var createdAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT visit_id, created_at FROM prescriptions WHERE id = $1 FOR UPDATE`, id).
		Scan(&visitID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("prescriptions: lock: %w", err)
	}

	now := time.Now().UTC()
	stored := clonePrescription(p)
	stored.ID = id
	stored.VisitID = visitID
	stored.CreatedAt = createdAt
	stored.UpdatedAt = now
	assignMedicineIDs(stored.Medicines)

	if _, err := tx.ExecContext(ctx, `
		UPDATE prescriptions SET follow_up_value = $2, follow_up_unit = $3, notes = $4, updated_at = $5
		WHERE id = $1`,
		id, followUpValue(stored.FollowUp), followUpUnit(stored.FollowUp), stored.Notes, now); err != nil {
		return nil, fmt.Errorf("prescriptions: update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM prescription_items WHERE prescription_id = $1`, id); err != nil {
		return nil, fmt.Errorf("prescriptions: clear items: %w", err)
	}
	if err := insertItems(ctx, tx, stored); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("prescriptions: commit: %w", err)
	}
	return stored, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Prescription, error) {
	var p Prescription
	var fuValue sql.NullInt64
	var fuUnit sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, visit_id, follow_up_value, follow_up_unit, notes, created_at, updated_at
		FROM prescriptions WHERE id = $1`, id).Scan(
		&p.ID, &p.VisitID, &fuValue, &fuUnit, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("prescriptions: get: %w", err)
	}
	if fuValue.Valid && fuValue.Int64 > 0 {
		p.FollowUp = &FollowUp{Value: int(fuValue.Int64), Unit: FollowUpUnit(fuUnit.String)}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, medicine, dosage, duration, notes
		FROM prescription_items WHERE prescription_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("prescriptions: items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.Name, &m.Dosage, &m.Duration, &m.Notes); err != nil {
			return nil, fmt.Errorf("prescriptions: scan item: %w", err)
		}
		p.Medicines = append(p.Medicines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) MedicineCount(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM prescription_items WHERE prescription_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("prescriptions: count items: %w", err)
	}
	return count, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, p *Prescription) error {
	for i, m := range p.Medicines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO prescription_items (id, prescription_id, position, medicine, dosage, duration, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.ID, p.ID, i, m.Name, m.Dosage, m.Duration, m.Notes); err != nil {
			return fmt.Errorf("prescriptions: insert item: %w", err)
		}
	}
	return nil
}

func followUpValue(fu *FollowUp) sql.NullInt64 {
	if fu == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(fu.Value), Valid: true}
}

func followUpUnit(fu *FollowUp) sql.NullString {
	if fu == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(fu.Unit), Valid: true}
}
