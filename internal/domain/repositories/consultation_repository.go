package repositories

import (
	"context"

	"github.com/clinova/medassist/internal/domain/entities"
)

// ConsultationRepository defines consultation persistence operations.
type ConsultationRepository interface {
	// Insert persists a new record with a caller-supplied report ID.
	// Inserting an ID that already exists for the patient returns a
	// CONFLICT error so the caller can recompute and retry.
	Insert(ctx context.Context, consultation *entities.Consultation) error

	// FindByPatient returns the patient's history, oldest report first.
	FindByPatient(ctx context.Context, patientKey string) ([]*entities.Consultation, error)

	// FindByKeywords returns records whose keyword set overlaps the given
	// set (any intersection, not exact match).
	FindByKeywords(ctx context.Context, keywords []string) ([]*entities.Consultation, error)

	// MaxReportID returns the highest report ID recorded for the patient,
	// or a NOT_FOUND error when the patient has no prior records.
	MaxReportID(ctx context.Context, patientKey string) (int, error)

	// ListMissingEmbeddings returns every record that has no embedding
	// yet. Records inserted mid-scan may or may not be included.
	ListMissingEmbeddings(ctx context.Context) ([]*entities.Consultation, error)

	// SetEmbedding stores the vector for one record. Setting the same
	// vector twice is a no-op.
	SetEmbedding(ctx context.Context, patientKey string, reportID int, embedding []float32) error

	// FindAllWithEmbeddings returns the ranking projection of every
	// backfilled record. Read skew with concurrent writes is tolerated.
	FindAllWithEmbeddings(ctx context.Context) ([]entities.EmbeddedSummary, error)

	// SearchByEmbedding ranks stored records against the query vector in
	// the database, ordered by descending cosine similarity.
	SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]entities.SimilarityResult, error)
}
