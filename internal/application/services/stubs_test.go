package services

import (
	"context"
	"sync"

	"github.com/clinova/medassist/internal/domain/entities"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

// stubChat answers prompts with a caller-supplied function and counts calls.
type stubChat struct {
	mu       sync.Mutex
	calls    int
	generate func(systemPrompt, userPrompt string) (string, error)
}

func (c *stubChat) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.generate(systemPrompt, userPrompt)
}

func (c *stubChat) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// stubArticles serves canned literature search results.
type stubArticles struct {
	searchFn func(query string, retMax int) (*entities.ArticleSearchResult, error)
}

func (a *stubArticles) SearchArticles(ctx context.Context, query string, retMax int) (*entities.ArticleSearchResult, error) {
	if a.searchFn != nil {
		return a.searchFn(query, retMax)
	}
	return &entities.ArticleSearchResult{Query: query, Articles: []entities.Article{}}, nil
}

func (a *stubArticles) FetchAbstract(ctx context.Context, pmid string) (string, error) {
	return "", apperrors.NewNotFoundError("no abstract")
}

// stubEmbedder embeds with a caller-supplied function.
type stubEmbedder struct {
	dimensions int
	embedFn    func(text string) ([]float32, error)
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.embedFn(text)
}

func (e *stubEmbedder) Dimensions() int {
	if e.dimensions > 0 {
		return e.dimensions
	}
	return 3
}

// stubConsultationRepo is an in-memory consultation repository with optional
// per-method overrides.
type stubConsultationRepo struct {
	mu      sync.Mutex
	records []*entities.Consultation

	insertFn     func(c *entities.Consultation) error
	maxReportFn  func(patientKey string) (int, error)
	embedded     []entities.EmbeddedSummary
	embeddedErr  error
	missing      []*entities.Consultation
	missingErr   error
	setEmbedding func(patientKey string, reportID int, embedding []float32) error
	searchFn     func(embedding []float32, topK int) ([]entities.SimilarityResult, error)
	findErr      error
}

func (r *stubConsultationRepo) Insert(ctx context.Context, c *entities.Consultation) error {
	if r.insertFn != nil {
		if err := r.insertFn(c); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *c
	r.records = append(r.records, &stored)
	return nil
}

func (r *stubConsultationRepo) FindByPatient(ctx context.Context, patientKey string) ([]*entities.Consultation, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []*entities.Consultation
	for _, record := range r.records {
		if record.PatientKey == patientKey {
			matches = append(matches, record)
		}
	}
	return matches, nil
}

func (r *stubConsultationRepo) FindByKeywords(ctx context.Context, keywords []string) ([]*entities.Consultation, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		want[k] = true
	}
	var matches []*entities.Consultation
	for _, record := range r.records {
		for _, k := range record.Keywords {
			if want[k] {
				matches = append(matches, record)
				break
			}
		}
	}
	return matches, nil
}

func (r *stubConsultationRepo) MaxReportID(ctx context.Context, patientKey string) (int, error) {
	if r.maxReportFn != nil {
		return r.maxReportFn(patientKey)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	maxID := 0
	for _, record := range r.records {
		if record.PatientKey == patientKey && record.ReportID > maxID {
			maxID = record.ReportID
		}
	}
	if maxID == 0 {
		return 0, apperrors.NewNotFoundError("no consultations found for patient")
	}
	return maxID, nil
}

func (r *stubConsultationRepo) ListMissingEmbeddings(ctx context.Context) ([]*entities.Consultation, error) {
	if r.missingErr != nil {
		return nil, r.missingErr
	}
	return r.missing, nil
}

func (r *stubConsultationRepo) SetEmbedding(ctx context.Context, patientKey string, reportID int, embedding []float32) error {
	if r.setEmbedding != nil {
		return r.setEmbedding(patientKey, reportID, embedding)
	}
	return nil
}

func (r *stubConsultationRepo) FindAllWithEmbeddings(ctx context.Context) ([]entities.EmbeddedSummary, error) {
	if r.embeddedErr != nil {
		return nil, r.embeddedErr
	}
	return r.embedded, nil
}

func (r *stubConsultationRepo) SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]entities.SimilarityResult, error) {
	if r.searchFn != nil {
		return r.searchFn(embedding, topK)
	}
	return []entities.SimilarityResult{}, nil
}

func (r *stubConsultationRepo) stored() []*entities.Consultation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Consultation, len(r.records))
	copy(out, r.records)
	return out
}

// stubPatientRepo is an in-memory patient repository.
type stubPatientRepo struct {
	mu       sync.Mutex
	patients map[string]*entities.Patient
}

func newStubPatientRepo(patients ...*entities.Patient) *stubPatientRepo {
	repo := &stubPatientRepo{patients: make(map[string]*entities.Patient)}
	for _, p := range patients {
		repo.patients[p.PatientKey] = p
	}
	return repo
}

func (r *stubPatientRepo) Create(ctx context.Context, patient *entities.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.patients[patient.PatientKey]; exists {
		return apperrors.NewConflictError("patient already registered")
	}
	stored := *patient
	r.patients[patient.PatientKey] = &stored
	return nil
}

func (r *stubPatientRepo) GetByKey(ctx context.Context, patientKey string) (*entities.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	patient, ok := r.patients[patientKey]
	if !ok {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	return patient, nil
}
