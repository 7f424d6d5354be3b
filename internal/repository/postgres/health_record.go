package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medpal/assist-api/internal/model"
	"github.com/medpal/assist-api/internal/repository"
	apperrors "github.com/medpal/assist-api/pkg/errors"
)

type healthRecordRepository struct {
	db *sqlx.DB
}

func NewHealthRecordRepository(db *sqlx.DB) repository.HealthRecordRepository {
	return &healthRecordRepository{db: db}
}

// Create inserts the record with a server-assigned creation timestamp.
// The caller's CreatedAt is not written; the store's clock is
// authoritative and is observed on the next ListByUser.
func (r *healthRecordRepository) Create(ctx context.Context, record *model.HealthRecord) error {
	query := `
		INSERT INTO health_records (id, user_id, patient_name, age, symptoms, diagnosis, prescriptions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.PatientName,
		record.Age,
		record.Symptoms,
		record.Diagnosis,
		record.Prescriptions,
	)
	if err != nil {
		return fmt.Errorf("failed to create health record: %w", err)
	}
	return nil
}

// ListByUser returns every record owned by userID, unordered.
func (r *healthRecordRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.HealthRecord, error) {
	query := `SELECT * FROM health_records WHERE user_id = $1`
	var records []*model.HealthRecord
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list health records: %w", err)
	}
	return records, nil
}

// Update writes only the fields present in patch, and only when the
// record belongs to userID. Creation time and ownership are never
// written.
func (r *healthRecordRepository) Update(ctx context.Context, userID, id uuid.UUID, patch *model.UpdateHealthRecordRequest) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.PatientName != nil {
		add("patient_name", *patch.PatientName)
	}
	if patch.Age != nil {
		add("age", *patch.Age)
	}
	if patch.Symptoms != nil {
		add("symptoms", *patch.Symptoms)
	}
	if patch.Diagnosis != nil {
		add("diagnosis", *patch.Diagnosis)
	}
	if patch.Prescriptions != nil {
		add("prescriptions", *patch.Prescriptions)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	idArg := len(args)
	args = append(args, userID)
	query := fmt.Sprintf(
		"UPDATE health_records SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(sets, ", "), idArg, len(args),
	)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update health record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("health record", nil)
	}
	return nil
}

// Delete removes the record only when it belongs to userID.
func (r *healthRecordRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM health_records WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete health record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("health record", nil)
	}
	return nil
}
