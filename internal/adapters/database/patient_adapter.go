package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/repositories"
	"github.com/clinova/medassist/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

// PatientAdapter implements patient persistence in Postgres.
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter.
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create registers a new patient profile.
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	if patient == nil {
		return apperrors.NewInternalError("patient is nil", fmt.Errorf("patient is nil"))
	}

	record := goqu.Record{
		"patient_key":      patient.PatientKey,
		"full_name":        patient.FullName,
		"age":              patient.Age,
		"sex":              patient.Sex,
		"occupation":       patient.Occupation,
		"chronic_diseases": pq.Array(patient.ChronicDiseases),
		"allergies":        pq.Array(patient.Allergies),
	}

	query, args, err := a.db.Insert("patients").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build patient insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return apperrors.NewConflictError("patient already registered")
		}
		return apperrors.NewInternalError("failed to create patient", err)
	}

	return nil
}

// GetByKey returns one patient profile.
func (a *PatientAdapter) GetByKey(ctx context.Context, patientKey string) (*entities.Patient, error) {
	query, args, err := a.db.From("patients").
		Select("patient_key", "full_name", "age", "sex", "occupation", "chronic_diseases", "allergies").
		Where(goqu.Ex{"patient_key": patientKey}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build patient query", err)
	}

	var patient entities.Patient
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&patient.PatientKey,
		&patient.FullName,
		&patient.Age,
		&patient.Sex,
		&patient.Occupation,
		pq.Array(&patient.ChronicDiseases),
		pq.Array(&patient.Allergies),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query patient", err)
	}

	return &patient, nil
}
