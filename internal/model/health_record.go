package model

import (
	"time"

	"github.com/google/uuid"
)

// HealthRecord is a patient encounter entry owned by exactly one user.
// Diagnosis and prescriptions are optional; the empty string means
// "not recorded". CreatedAt is assigned by the store and immutable.
type HealthRecord struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	PatientName   string    `db:"patient_name" json:"patient_name"`
	Age           int       `db:"age" json:"age"`
	Symptoms      string    `db:"symptoms" json:"symptoms"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis"`
	Prescriptions string    `db:"prescriptions" json:"prescriptions"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type CreateHealthRecordRequest struct {
	PatientName   string `json:"patient_name" binding:"required" validate:"required"`
	Age           int    `json:"age" binding:"required,gte=1,lte=120" validate:"required,gte=1,lte=120"`
	Symptoms      string `json:"symptoms" binding:"required" validate:"required"`
	Diagnosis     string `json:"diagnosis"`
	Prescriptions string `json:"prescriptions"`
}

// UpdateHealthRecordRequest is a partial-field patch; nil fields are left
// untouched. Creation time and ownership are never patchable.
type UpdateHealthRecordRequest struct {
	PatientName   *string `json:"patient_name" validate:"omitempty,min=1"`
	Age           *int    `json:"age" validate:"omitempty,gte=1,lte=120"`
	Symptoms      *string `json:"symptoms" validate:"omitempty,min=1"`
	Diagnosis     *string `json:"diagnosis"`
	Prescriptions *string `json:"prescriptions"`
}
