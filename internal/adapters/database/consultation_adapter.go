package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/repositories"
	"github.com/clinova/medassist/internal/infrastructure/clients/postgres"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

const uniqueViolation = "23505"

// ConsultationAdapter implements consultation persistence in Postgres.
// Reports are keyed by (patient_key, report_id); a unique constraint on
// that pair backs the conflict-and-retry report numbering scheme.
type ConsultationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewConsultationAdapter creates a new consultation adapter.
func NewConsultationAdapter(client *postgres.Client) repositories.ConsultationRepository {
	return &ConsultationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Insert persists a new consultation. A duplicate (patient_key, report_id)
// pair surfaces as a CONFLICT error so the caller can renumber and retry.
func (a *ConsultationAdapter) Insert(ctx context.Context, consultation *entities.Consultation) error {
	if consultation == nil {
		return apperrors.NewInternalError("consultation is nil", fmt.Errorf("consultation is nil"))
	}

	record := goqu.Record{
		"patient_key":       consultation.PatientKey,
		"report_id":         consultation.ReportID,
		"symptoms":          pq.Array(consultation.Symptoms),
		"pathology":         consultation.Pathology,
		"treatment":         pq.Array(consultation.Treatment),
		"keywords":          pq.Array(consultation.Keywords),
		"consultation_date": consultation.Date,
		"summary":           consultation.Summary,
	}
	if consultation.HasEmbedding() {
		record["embedding"] = pgvector.NewVector(consultation.Embedding)
	}

	query, args, err := a.db.Insert("consultations").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build consultation insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return apperrors.NewConflictError(fmt.Sprintf(
				"report %d already exists for patient", consultation.ReportID,
			))
		}
		return apperrors.NewInternalError("failed to insert consultation", err)
	}

	return nil
}

// FindByPatient returns the patient's history ordered by report ID.
func (a *ConsultationAdapter) FindByPatient(ctx context.Context, patientKey string) ([]*entities.Consultation, error) {
	query, args, err := a.db.From("consultations").
		Select("report_id", "patient_key", "symptoms", "pathology", "treatment", "keywords", "consultation_date", "summary").
		Where(goqu.Ex{"patient_key": patientKey}).
		Order(goqu.I("report_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build history query", err)
	}

	return a.queryConsultations(ctx, query, args)
}

// FindByKeywords returns records whose keyword set intersects the given one.
func (a *ConsultationAdapter) FindByKeywords(ctx context.Context, keywords []string) ([]*entities.Consultation, error) {
	if len(keywords) == 0 {
		return []*entities.Consultation{}, nil
	}

	query, args, err := a.db.From("consultations").
		Select("report_id", "patient_key", "symptoms", "pathology", "treatment", "keywords", "consultation_date", "summary").
		Where(goqu.L("keywords && ?", pq.Array(keywords))).
		Order(goqu.I("patient_key").Asc(), goqu.I("report_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build keyword query", err)
	}

	return a.queryConsultations(ctx, query, args)
}

// MaxReportID returns the highest report ID for the patient, or NOT_FOUND
// when the patient has no history yet.
func (a *ConsultationAdapter) MaxReportID(ctx context.Context, patientKey string) (int, error) {
	query, args, err := a.db.From("consultations").
		Select(goqu.MAX("report_id")).
		Where(goqu.Ex{"patient_key": patientKey}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build max report query", err)
	}

	var maxID sql.NullInt64
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&maxID); err != nil {
		return 0, apperrors.NewInternalError("failed to query max report id", err)
	}
	if !maxID.Valid {
		return 0, apperrors.NewNotFoundError("no consultations found for patient")
	}

	return int(maxID.Int64), nil
}

// ListMissingEmbeddings returns every record not yet backfilled.
func (a *ConsultationAdapter) ListMissingEmbeddings(ctx context.Context) ([]*entities.Consultation, error) {
	query, args, err := a.db.From("consultations").
		Select("report_id", "patient_key", "symptoms", "pathology", "treatment", "keywords", "consultation_date", "summary").
		Where(goqu.I("embedding").IsNull()).
		Order(goqu.I("patient_key").Asc(), goqu.I("report_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build missing-embeddings query", err)
	}

	return a.queryConsultations(ctx, query, args)
}

// SetEmbedding stores the vector for one record. Rewriting an already
// backfilled record is harmless.
func (a *ConsultationAdapter) SetEmbedding(ctx context.Context, patientKey string, reportID int, embedding []float32) error {
	query, args, err := a.db.Update("consultations").
		Set(goqu.Record{"embedding": pgvector.NewVector(embedding)}).
		Where(goqu.Ex{"patient_key": patientKey, "report_id": reportID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build embedding update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update embedding", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read update result", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf(
			"consultation %d not found for patient", reportID,
		))
	}

	return nil
}

// FindAllWithEmbeddings returns the ranking projection of every backfilled
// record.
func (a *ConsultationAdapter) FindAllWithEmbeddings(ctx context.Context) ([]entities.EmbeddedSummary, error) {
	query, args, err := a.db.From("consultations").
		Select("report_id", "patient_key", "summary", "embedding").
		Where(goqu.I("embedding").IsNotNull()).
		Order(goqu.I("patient_key").Asc(), goqu.I("report_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build embeddings query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query embeddings", err)
	}
	defer rows.Close()

	var summaries []entities.EmbeddedSummary
	for rows.Next() {
		var summary entities.EmbeddedSummary
		var vec pgvector.Vector
		if err := rows.Scan(&summary.ReportID, &summary.PatientKey, &summary.Summary, &vec); err != nil {
			return nil, apperrors.NewInternalError("failed to scan embedded summary", err)
		}
		summary.Embedding = vec.Slice()
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate embeddings", err)
	}

	return summaries, nil
}

// SearchByEmbedding ranks backfilled records against the query vector
// inside Postgres using the cosine distance operator.
func (a *ConsultationAdapter) SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]entities.SimilarityResult, error) {
	if topK <= 0 {
		return []entities.SimilarityResult{}, nil
	}

	query := `
		SELECT report_id, summary, 1 - (embedding <=> $1) AS score
		FROM consultations
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1, report_id ASC
		LIMIT $2`

	rows, err := a.client.DB().QueryContext(ctx, query, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to run similarity search", err)
	}
	defer rows.Close()

	var results []entities.SimilarityResult
	for rows.Next() {
		var result entities.SimilarityResult
		if err := rows.Scan(&result.ReportID, &result.Summary, &result.Score); err != nil {
			return nil, apperrors.NewInternalError("failed to scan similarity result", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate similarity results", err)
	}

	return results, nil
}

func (a *ConsultationAdapter) queryConsultations(ctx context.Context, query string, args []interface{}) ([]*entities.Consultation, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query consultations", err)
	}
	defer rows.Close()

	var consultations []*entities.Consultation
	for rows.Next() {
		var c entities.Consultation
		if err := rows.Scan(
			&c.ReportID,
			&c.PatientKey,
			pq.Array(&c.Symptoms),
			&c.Pathology,
			pq.Array(&c.Treatment),
			pq.Array(&c.Keywords),
			&c.Date,
			&c.Summary,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan consultation", err)
		}
		consultations = append(consultations, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate consultations", err)
	}

	return consultations, nil
}
