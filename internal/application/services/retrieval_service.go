package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/providers"
	"github.com/clinova/medassist/internal/domain/repositories"
	"github.com/clinova/medassist/internal/infrastructure/observability"
	"github.com/clinova/medassist/pkg/config"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

// StrategyLinear scans every stored vector in process; StrategyPGVector
// pushes the ranking into Postgres. Both honor the same contract.
const (
	StrategyLinear   = "linear"
	StrategyPGVector = "pgvector"
)

// RetrievalService ranks stored consultations by semantic similarity to a
// query string.
type RetrievalService struct {
	consultations repositories.ConsultationRepository
	embedder      providers.EmbeddingProvider
	strategy      string
	defaultTopK   int
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(consultations repositories.ConsultationRepository, embedder providers.EmbeddingProvider, cfg *config.RetrievalConfig) *RetrievalService {
	strategy := StrategyLinear
	defaultTopK := 3
	if cfg != nil {
		if cfg.Strategy == StrategyPGVector {
			strategy = StrategyPGVector
		}
		if cfg.TopK > 0 {
			defaultTopK = cfg.TopK
		}
	}
	return &RetrievalService{
		consultations: consultations,
		embedder:      embedder,
		strategy:      strategy,
		defaultTopK:   defaultTopK,
	}
}

// Search returns up to topK stored records ranked by descending cosine
// similarity to the query. An empty corpus yields an empty result, not an
// error; a failure embedding the query aborts the whole search.
func (s *RetrievalService) Search(ctx context.Context, query string, topK int) ([]entities.SimilarityResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewMissingFieldError("query")
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.strategy == StrategyPGVector {
		return s.consultations.SearchByEmbedding(ctx, queryVector, topK)
	}

	return s.linearSearch(ctx, queryVector, topK)
}

func (s *RetrievalService) linearSearch(ctx context.Context, queryVector []float32, topK int) ([]entities.SimilarityResult, error) {
	summaries, err := s.consultations.FindAllWithEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return []entities.SimilarityResult{}, nil
	}

	logger := observability.LoggerFromContext(ctx)
	results := make([]entities.SimilarityResult, 0, len(summaries))
	for _, summary := range summaries {
		if len(summary.Embedding) != len(queryVector) {
			logger.Warn().
				Int("report_id", summary.ReportID).
				Int("dimension", len(summary.Embedding)).
				Msg("skipping record with mismatched embedding dimension")
			continue
		}
		results = append(results, entities.SimilarityResult{
			ReportID: summary.ReportID,
			Summary:  summary.Summary,
			Score:    CosineSimilarity(queryVector, summary.Embedding),
		})
	}

	// Ties break toward the lower report ID so rankings are reproducible.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ReportID < results[j].ReportID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors of
// equal length. A zero vector yields a similarity of 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
