package repositories

import (
	"context"

	"github.com/clinova/medassist/internal/domain/entities"
)

// PatientRepository defines patient persistence operations.
type PatientRepository interface {
	// Create registers a new patient. Registering an existing patient key
	// returns a CONFLICT error.
	Create(ctx context.Context, patient *entities.Patient) error

	// GetByKey returns the patient profile, or a NOT_FOUND error.
	GetByKey(ctx context.Context, patientKey string) (*entities.Patient, error)
}
