package database_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/medassist/internal/adapters/database"
	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/repositories"
	"github.com/clinova/medassist/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

func setupPatientAdapter(t *testing.T) (repositories.PatientRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := database.NewPatientAdapter(postgres.NewClientWithDB(db))
	return adapter, mock
}

func TestPatientAdapter_Create(t *testing.T) {
	patient := &entities.Patient{
		PatientKey:      "a3f1c9d2",
		FullName:        "Marie Dubois",
		Age:             "58",
		Sex:             "F",
		Occupation:      "Teacher",
		ChronicDiseases: []string{"hypertension"},
		Allergies:       []string{"penicillin"},
	}

	t.Run("registers the patient", func(t *testing.T) {
		adapter, mock := setupPatientAdapter(t)

		mock.ExpectExec(`INSERT INTO "patients"`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		assert.NoError(t, adapter.Create(context.Background(), patient))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate key maps to conflict", func(t *testing.T) {
		adapter, mock := setupPatientAdapter(t)

		mock.ExpectExec(`INSERT INTO "patients"`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "patients_pkey"})

		err := adapter.Create(context.Background(), patient)

		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestPatientAdapter_GetByKey(t *testing.T) {
	t.Run("returns the profile", func(t *testing.T) {
		adapter, mock := setupPatientAdapter(t)

		rows := sqlmock.NewRows([]string{
			"patient_key", "full_name", "age", "sex", "occupation", "chronic_diseases", "allergies",
		}).AddRow("a3f1c9d2", "Marie Dubois", "58", "F", "Teacher", `{hypertension,"type 2 diabetes"}`, `{penicillin}`)

		mock.ExpectQuery(`SELECT .+ FROM "patients" WHERE`).
			WillReturnRows(rows)

		patient, err := adapter.GetByKey(context.Background(), "a3f1c9d2")

		require.NoError(t, err)
		assert.Equal(t, "Marie Dubois", patient.FullName)
		assert.Equal(t, []string{"hypertension", "type 2 diabetes"}, patient.ChronicDiseases)
	})

	t.Run("unknown key maps to not found", func(t *testing.T) {
		adapter, mock := setupPatientAdapter(t)

		mock.ExpectQuery(`SELECT .+ FROM "patients" WHERE`).
			WillReturnRows(sqlmock.NewRows([]string{
				"patient_key", "full_name", "age", "sex", "occupation", "chronic_diseases", "allergies",
			}))

		_, err := adapter.GetByKey(context.Background(), "missing")

		assert.True(t, apperrors.IsNotFound(err))
	})
}
