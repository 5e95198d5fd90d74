package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/pkg/config"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

func unitEmbedder(vector []float32) *stubEmbedder {
	return &stubEmbedder{
		dimensions: len(vector),
		embedFn: func(text string) ([]float32, error) {
			return vector, nil
		},
	}
}

func TestRetrievalService_Search_Linear(t *testing.T) {
	repo := &stubConsultationRepo{
		embedded: []entities.EmbeddedSummary{
			{ReportID: 1, PatientKey: "a", Summary: "Flu-like illness.", Embedding: []float32{1, 0, 0}},
			{ReportID: 2, PatientKey: "a", Summary: "Hypertension follow-up.", Embedding: []float32{0, 1, 0}},
			{ReportID: 3, PatientKey: "b", Summary: "Asthma flare.", Embedding: []float32{0.9, 0.1, 0}},
		},
	}
	svc := NewRetrievalService(repo, unitEmbedder([]float32{1, 0, 0}), nil)

	results, err := svc.Search(context.Background(), "fever and cough", 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].ReportID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, 3, results[1].ReportID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRetrievalService_Search_TieBreaksOnLowerReportID(t *testing.T) {
	repo := &stubConsultationRepo{
		embedded: []entities.EmbeddedSummary{
			{ReportID: 9, Summary: "later duplicate", Embedding: []float32{1, 0, 0}},
			{ReportID: 2, Summary: "earlier duplicate", Embedding: []float32{1, 0, 0}},
		},
	}
	svc := NewRetrievalService(repo, unitEmbedder([]float32{1, 0, 0}), nil)

	results, err := svc.Search(context.Background(), "anything", 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].ReportID)
	assert.Equal(t, 9, results[1].ReportID)
}

func TestRetrievalService_Search_EmptyCorpus(t *testing.T) {
	svc := NewRetrievalService(&stubConsultationRepo{}, unitEmbedder([]float32{1, 0, 0}), nil)

	results, err := svc.Search(context.Background(), "fever", 3)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrievalService_Search_EmptyQuery(t *testing.T) {
	svc := NewRetrievalService(&stubConsultationRepo{}, unitEmbedder([]float32{1}), nil)

	_, err := svc.Search(context.Background(), "   ", 3)

	assert.True(t, apperrors.IsMissingField(err))
}

func TestRetrievalService_Search_EmbeddingFailureAborts(t *testing.T) {
	embedder := &stubEmbedder{embedFn: func(text string) ([]float32, error) {
		return nil, apperrors.NewEmbeddingError("provider unavailable", nil)
	}}
	svc := NewRetrievalService(&stubConsultationRepo{}, embedder, nil)

	_, err := svc.Search(context.Background(), "fever", 3)

	assert.True(t, apperrors.IsEmbedding(err))
}

func TestRetrievalService_Search_SkipsMismatchedDimensions(t *testing.T) {
	repo := &stubConsultationRepo{
		embedded: []entities.EmbeddedSummary{
			{ReportID: 1, Summary: "ok", Embedding: []float32{1, 0, 0}},
			{ReportID: 2, Summary: "stale model width", Embedding: []float32{1, 0}},
		},
	}
	svc := NewRetrievalService(repo, unitEmbedder([]float32{1, 0, 0}), nil)

	results, err := svc.Search(context.Background(), "fever", 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].ReportID)
}

func TestRetrievalService_Search_DefaultTopK(t *testing.T) {
	repo := &stubConsultationRepo{
		embedded: []entities.EmbeddedSummary{
			{ReportID: 1, Summary: "a", Embedding: []float32{1, 0, 0}},
			{ReportID: 2, Summary: "b", Embedding: []float32{0.9, 0.1, 0}},
			{ReportID: 3, Summary: "c", Embedding: []float32{0.8, 0.2, 0}},
			{ReportID: 4, Summary: "d", Embedding: []float32{0.7, 0.3, 0}},
		},
	}
	svc := NewRetrievalService(repo, unitEmbedder([]float32{1, 0, 0}), &config.RetrievalConfig{TopK: 2})

	results, err := svc.Search(context.Background(), "fever", 0)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRetrievalService_Search_PGVectorStrategy(t *testing.T) {
	var gotVector []float32
	var gotTopK int
	repo := &stubConsultationRepo{
		searchFn: func(embedding []float32, topK int) ([]entities.SimilarityResult, error) {
			gotVector = embedding
			gotTopK = topK
			return []entities.SimilarityResult{{ReportID: 1, Summary: "db ranked", Score: 0.88}}, nil
		},
	}
	svc := NewRetrievalService(repo, unitEmbedder([]float32{0.5, 0.5, 0}), &config.RetrievalConfig{Strategy: StrategyPGVector})

	results, err := svc.Search(context.Background(), "fever", 4)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "db ranked", results[0].Summary)
	assert.Equal(t, []float32{0.5, 0.5, 0}, gotVector)
	assert.Equal(t, 4, gotTopK)
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		assert.InDelta(t, 1.0, CosineSimilarity([]float32{0.3, 0.4}, []float32{0.3, 0.4}), 1e-9)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	})

	t.Run("zero vector", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 0}))
	})

	t.Run("scale invariance", func(t *testing.T) {
		a := []float32{0.2, 0.5, 0.1}
		scaled := []float32{0.4, 1.0, 0.2}
		assert.InDelta(t, 1.0, CosineSimilarity(a, scaled), 1e-6)
	})
}
