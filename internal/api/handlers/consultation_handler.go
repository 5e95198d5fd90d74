package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/clinova/medassist/internal/application/services"
	"github.com/clinova/medassist/internal/domain/entities"
)

// ConsultationService defines the pipeline operations used by the handler.
type ConsultationService interface {
	Create(ctx context.Context, req *services.ConsultationRequest) (*services.ConsultationOutcome, error)
	Search(ctx context.Context, query string, topK int) ([]entities.SimilarityResult, error)
	RelatedByKeywords(ctx context.Context, keywords []string) ([]*entities.Consultation, error)
	History(ctx context.Context, patientKey string) (string, error)
}

// ConsultationHandler serves the consultation pipeline and retrieval
// surface.
type ConsultationHandler struct {
	service ConsultationService
}

// NewConsultationHandler creates a new consultation handler.
func NewConsultationHandler(service ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{service: service}
}

// CreateConsultation handles POST /api/consultations.
func (h *ConsultationHandler) CreateConsultation(w http.ResponseWriter, r *http.Request) {
	var req services.ConsultationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	outcome, err := h.service.Create(r.Context(), &req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, outcome)
}

// SearchConsultations handles GET /api/consultations/search?q=...&top_k=N.
func (h *ConsultationHandler) SearchConsultations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "top_k must be a positive integer")
			return
		}
		topK = parsed
	}

	results, err := h.service.Search(r.Context(), query, topK)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

// RelatedConsultations handles GET /api/consultations/related?keywords=a,b.
func (h *ConsultationHandler) RelatedConsultations(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("keywords")
	var keywords []string
	for _, keyword := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(keyword); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}

	consultations, err := h.service.RelatedByKeywords(r.Context(), keywords)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if consultations == nil {
		consultations = []*entities.Consultation{}
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"keywords":      keywords,
		"consultations": consultations,
	})
}

// PatientHistory handles GET /api/patients/{key}/history.
func (h *ConsultationHandler) PatientHistory(w http.ResponseWriter, r *http.Request) {
	patientKey := r.PathValue("key")

	history, err := h.service.History(r.Context(), patientKey)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"patient_key":     patientKey,
		"medical_history": history,
	})
}
