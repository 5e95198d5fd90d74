package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/clinova/medassist/internal/domain/entities"
)

// PatientService defines the patient operations used by the handler.
type PatientService interface {
	RegisterPatient(ctx context.Context, patient *entities.Patient) error
	GetPatient(ctx context.Context, patientKey string) (*entities.Patient, error)
}

// PatientHandler serves patient registration and lookup.
type PatientHandler struct {
	service PatientService
}

// NewPatientHandler creates a new patient handler.
func NewPatientHandler(service PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

// CreatePatient handles POST /api/patients.
func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var patient entities.Patient
	if err := json.NewDecoder(r.Body).Decode(&patient); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.service.RegisterPatient(r.Context(), &patient); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, &patient)
}

// GetPatient handles GET /api/patients/{key}.
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	patient, err := h.service.GetPatient(r.Context(), r.PathValue("key"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, patient)
}
