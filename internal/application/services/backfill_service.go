package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/providers"
	"github.com/clinova/medassist/internal/domain/repositories"
	"github.com/clinova/medassist/internal/infrastructure/observability"
)

const backfillQueueSize = 100

// BackfillSummary reports the outcome of one backfill run.
type BackfillSummary struct {
	Scanned  int           `json:"scanned"`
	Embedded int           `json:"embedded"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// BackfillService computes embeddings for consultation records that do not
// have one yet. Re-running after a partial failure is safe: the scan only
// ever touches records still missing a vector.
type BackfillService struct {
	consultations repositories.ConsultationRepository
	embedder      providers.EmbeddingProvider
	workerCount   int
}

// NewBackfillService creates a backfill service.
func NewBackfillService(consultations repositories.ConsultationRepository, embedder providers.EmbeddingProvider, workers int) *BackfillService {
	if workers <= 0 {
		workers = 1
	}
	return &BackfillService{
		consultations: consultations,
		embedder:      embedder,
		workerCount:   workers,
	}
}

// Run scans every record lacking an embedding, computes one from its
// summary and persists it. A failure on one record never aborts the rest
// of the scan.
func (s *BackfillService) Run(ctx context.Context) (*BackfillSummary, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	missing, err := s.consultations.ListMissingEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	var embedded, skipped, failed int64

	recordChan := make(chan *entities.Consultation, backfillQueueSize)
	var wg sync.WaitGroup
	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range recordChan {
				switch s.backfillOne(ctx, record) {
				case backfillEmbedded:
					atomic.AddInt64(&embedded, 1)
				case backfillSkipped:
					atomic.AddInt64(&skipped, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	for _, record := range missing {
		select {
		case recordChan <- record:
		case <-ctx.Done():
			close(recordChan)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(recordChan)
	wg.Wait()

	summary := &BackfillSummary{
		Scanned:  len(missing),
		Embedded: int(embedded),
		Skipped:  int(skipped),
		Failed:   int(failed),
		Duration: time.Since(start),
	}
	logger.Info().
		Int("scanned", summary.Scanned).
		Int("embedded", summary.Embedded).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("embedding backfill finished")

	return summary, nil
}

type backfillResult int

const (
	backfillEmbedded backfillResult = iota
	backfillSkipped
	backfillFailed
)

func (s *BackfillService) backfillOne(ctx context.Context, record *entities.Consultation) backfillResult {
	logger := observability.LoggerFromContext(ctx)

	if record.Summary == "" {
		logger.Warn().
			Str("patient_key", record.PatientKey).
			Int("report_id", record.ReportID).
			Msg("skipping record with empty summary")
		return backfillSkipped
	}

	vector, err := s.embedder.Embed(ctx, record.Summary)
	if err != nil {
		logger.Error().
			Err(err).
			Str("patient_key", record.PatientKey).
			Int("report_id", record.ReportID).
			Msg("failed to embed summary")
		return backfillFailed
	}

	if err := s.consultations.SetEmbedding(ctx, record.PatientKey, record.ReportID, vector); err != nil {
		logger.Error().
			Err(err).
			Str("patient_key", record.PatientKey).
			Int("report_id", record.ReportID).
			Msg("failed to persist embedding")
		return backfillFailed
	}

	return backfillEmbedded
}
