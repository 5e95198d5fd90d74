package database_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/medassist/internal/adapters/database"
	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/repositories"
	"github.com/clinova/medassist/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

func setupConsultationAdapter(t *testing.T) (repositories.ConsultationRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := database.NewConsultationAdapter(postgres.NewClientWithDB(db))
	return adapter, mock
}

func sampleConsultation() *entities.Consultation {
	return &entities.Consultation{
		ReportID:   1,
		PatientKey: "a3f1c9d2",
		Symptoms:   []string{"fever", "dry cough"},
		Pathology:  "Influenza",
		Treatment:  []string{"rest", "paracetamol"},
		Keywords:   []string{"flu", "fever"},
		Date:       "2026-01-14",
		Summary:    "Flu-like illness, supportive care.",
	}
}

func TestConsultationAdapter_Insert(t *testing.T) {
	t.Run("inserts record", func(t *testing.T) {
		adapter, mock := setupConsultationAdapter(t)

		mock.ExpectExec(`INSERT INTO "consultations"`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := adapter.Insert(context.Background(), sampleConsultation())

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate report id maps to conflict", func(t *testing.T) {
		adapter, mock := setupConsultationAdapter(t)

		mock.ExpectExec(`INSERT INTO "consultations"`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "consultations_patient_key_report_id_key"})

		err := adapter.Insert(context.Background(), sampleConsultation())

		assert.True(t, apperrors.IsConflict(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil consultation is rejected", func(t *testing.T) {
		adapter, _ := setupConsultationAdapter(t)

		err := adapter.Insert(context.Background(), nil)

		assert.Error(t, err)
	})
}

func TestConsultationAdapter_FindByPatient(t *testing.T) {
	adapter, mock := setupConsultationAdapter(t)

	rows := sqlmock.NewRows([]string{
		"report_id", "patient_key", "symptoms", "pathology", "treatment", "keywords", "consultation_date", "summary",
	}).
		AddRow(1, "a3f1c9d2", `{fever,"dry cough"}`, "Influenza", `{rest,paracetamol}`, `{flu,fever}`, "2026-01-14", "Flu-like illness.").
		AddRow(2, "a3f1c9d2", `{headache}`, "Uncontrolled hypertension", `{"amlodipine 5mg daily"}`, `{hypertension}`, "2026-03-02", "Hypertension follow-up.")

	mock.ExpectQuery(`SELECT .+ FROM "consultations" WHERE .+ ORDER BY "report_id" ASC`).
		WillReturnRows(rows)

	consultations, err := adapter.FindByPatient(context.Background(), "a3f1c9d2")

	require.NoError(t, err)
	require.Len(t, consultations, 2)
	assert.Equal(t, 1, consultations[0].ReportID)
	assert.Equal(t, []string{"fever", "dry cough"}, consultations[0].Symptoms)
	assert.Equal(t, "Uncontrolled hypertension", consultations[1].Pathology)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultationAdapter_FindByKeywords(t *testing.T) {
	t.Run("empty keyword set short-circuits", func(t *testing.T) {
		adapter, mock := setupConsultationAdapter(t)

		consultations, err := adapter.FindByKeywords(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, consultations)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("overlap query returns matches", func(t *testing.T) {
		adapter, mock := setupConsultationAdapter(t)

		rows := sqlmock.NewRows([]string{
			"report_id", "patient_key", "symptoms", "pathology", "treatment", "keywords", "consultation_date", "summary",
		}).
			AddRow(1, "b7e4a001", `{wheezing}`, "Asthma exacerbation", `{"salbutamol inhaler"}`, `{asthma,wheezing}`, "2026-02-20", "Asthma flare.")

		mock.ExpectQuery(`SELECT .+ FROM "consultations" WHERE .*keywords &&`).
			WillReturnRows(rows)

		consultations, err := adapter.FindByKeywords(context.Background(), []string{"asthma"})

		require.NoError(t, err)
		require.Len(t, consultations, 1)
		assert.Equal(t, "b7e4a001", consultations[0].PatientKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConsultationAdapter_MaxReportID(t *testing.T) {
	t.Run("returns the highest id", func(t *testing.T) {
		adapter, mock := setupConsultationAdapter(t)

		mock.ExpectQuery(`SELECT MAX\("report_id"\) FROM "consultations"`).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(7))

		maxID, err := adapter.MaxReportID(context.Background(), "a3f1c9d2")

		require.NoError(t, err)
		assert.Equal(t, 7, maxID)
	})

	t.Run("null aggregate maps to not found", func(t *testing.T) {
		adapter, mock := setupConsultationAdapter(t)

		mock.ExpectQuery(`SELECT MAX\("report_id"\) FROM "consultations"`).
			WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

		_, err := adapter.MaxReportID(context.Background(), "no-history")

		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestConsultationAdapter_SetEmbedding(t *testing.T) {
	embedding := []float32{0.1, 0.2, 0.3}

	t.Run("updates the record", func(t *testing.T) {
		adapter, mock := setupConsultationAdapter(t)

		mock.ExpectExec(`UPDATE "consultations" SET "embedding"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.SetEmbedding(context.Background(), "a3f1c9d2", 1, embedding)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown record maps to not found", func(t *testing.T) {
		adapter, mock := setupConsultationAdapter(t)

		mock.ExpectExec(`UPDATE "consultations" SET "embedding"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.SetEmbedding(context.Background(), "a3f1c9d2", 99, embedding)

		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestConsultationAdapter_FindAllWithEmbeddings(t *testing.T) {
	adapter, mock := setupConsultationAdapter(t)

	vec := pgvector.NewVector([]float32{0.1, 0.2})
	vecValue, err := vec.Value()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"report_id", "patient_key", "summary", "embedding"}).
		AddRow(1, "a3f1c9d2", "Flu-like illness.", vecValue)

	mock.ExpectQuery(`SELECT .+ FROM "consultations" WHERE \("embedding" IS NOT NULL\)`).
		WillReturnRows(rows)

	summaries, err := adapter.FindAllWithEmbeddings(context.Background())

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].ReportID)
	assert.InDeltaSlice(t, []float32{0.1, 0.2}, summaries[0].Embedding, 1e-6)
}

func TestConsultationAdapter_SearchByEmbedding(t *testing.T) {
	t.Run("non-positive top k short-circuits", func(t *testing.T) {
		adapter, mock := setupConsultationAdapter(t)

		results, err := adapter.SearchByEmbedding(context.Background(), []float32{0.1}, 0)

		require.NoError(t, err)
		assert.Empty(t, results)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ranks by cosine distance", func(t *testing.T) {
		adapter, mock := setupConsultationAdapter(t)

		rows := sqlmock.NewRows([]string{"report_id", "summary", "score"}).
			AddRow(1, "Flu-like illness.", 0.93).
			AddRow(3, "Asthma flare.", 0.41)

		mock.ExpectQuery(`ORDER BY embedding <=> \$1, report_id ASC`).
			WillReturnRows(rows)

		results, err := adapter.SearchByEmbedding(context.Background(), []float32{0.1, 0.2}, 2)

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 1, results[0].ReportID)
		assert.InDelta(t, 0.93, results[0].Score, 1e-9)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
