package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/repositories"
	"github.com/clinova/medassist/internal/infrastructure/observability"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

// NoHistorySentinel is the medical-history string used when a patient has
// no prior consultations, or when retrieving them failed. Kept verbatim so
// downstream consumers can test against it.
const NoHistorySentinel = "No previous consultations found."

// reportIDMaxAttempts bounds the renumber-and-retry loop when two
// concurrent runs collide on the same report ID.
const reportIDMaxAttempts = 5

const notProvided = "Not provided"

// ConsultationRequest is the input to one pipeline run.
type ConsultationRequest struct {
	PatientKey            string `json:"patient_key"`
	Conversation          string `json:"conversation"`
	Date                  string `json:"date"`
	DoctorPrescription    string `json:"doctor_prescription,omitempty"`
	AdditionalNotes       string `json:"additional_notes,omitempty"`
	AdditionalMedicalInfo string `json:"additional_medical_information,omitempty"`
}

// ConsultationOutcome is the result of one pipeline run: the persisted
// record plus the ID of the anomaly-detection task dispatched alongside
// it, when a prescription was supplied.
type ConsultationOutcome struct {
	Consultation  *entities.Consultation `json:"consultation"`
	AnomalyTaskID string                 `json:"anomaly_task_id,omitempty"`
}

// ConsultationService runs the consultation pipeline: retrieve history,
// synthesize a report, assign the next report ID and persist the record.
type ConsultationService struct {
	consultations repositories.ConsultationRepository
	patients      repositories.PatientRepository
	orchestrator  *Orchestrator
	retrieval     *RetrievalService
}

// NewConsultationService creates a consultation service.
func NewConsultationService(
	consultations repositories.ConsultationRepository,
	patients repositories.PatientRepository,
	orchestrator *Orchestrator,
	retrieval *RetrievalService,
) *ConsultationService {
	return &ConsultationService{
		consultations: consultations,
		patients:      patients,
		orchestrator:  orchestrator,
		retrieval:     retrieval,
	}
}

// Create synthesizes and persists a new consultation record. Report
// generation failure aborts the run; history retrieval failure does not.
func (s *ConsultationService) Create(ctx context.Context, req *ConsultationRequest) (*ConsultationOutcome, error) {
	if req == nil || strings.TrimSpace(req.PatientKey) == "" {
		return nil, apperrors.NewMissingFieldError("patient_key")
	}
	if strings.TrimSpace(req.Conversation) == "" {
		return nil, apperrors.NewMissingFieldError("conversation")
	}

	patient, err := s.patients.GetByKey(ctx, req.PatientKey)
	if err != nil {
		return nil, err
	}

	history := s.medicalHistory(ctx, req.PatientKey)

	// The anomaly branch runs concurrently with report generation; its
	// result is surfaced through the task API, not inlined here.
	var anomalyTaskID string
	if strings.TrimSpace(req.DoctorPrescription) != "" {
		anomalyTask, err := s.orchestrator.Dispatch(ctx, entities.StageAnomalyDetection, StageInputs{
			"doctor_prescription":        req.DoctorPrescription,
			"patient_medication_history": history,
		})
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("patient_key", req.PatientKey).
				Msg("failed to dispatch anomaly detection")
		} else {
			anomalyTaskID = anomalyTask.ID
		}
	}

	report, err := s.generateReport(ctx, req, patient, history)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	consultation := &entities.Consultation{
		PatientKey: req.PatientKey,
		Symptoms:   report.Symptoms,
		Pathology:  report.Pathology,
		Treatment:  report.Treatment,
		Keywords:   report.Keywords,
		Date:       date,
		Summary:    report.Summary,
	}

	if err := s.insertWithNextReportID(ctx, consultation); err != nil {
		return nil, err
	}

	return &ConsultationOutcome{
		Consultation:  consultation,
		AnomalyTaskID: anomalyTaskID,
	}, nil
}

// History returns the aggregated medical-history string for a patient.
func (s *ConsultationService) History(ctx context.Context, patientKey string) (string, error) {
	if strings.TrimSpace(patientKey) == "" {
		return "", apperrors.NewMissingFieldError("patient_key")
	}
	return s.medicalHistory(ctx, patientKey), nil
}

// RelatedByKeywords returns consultations whose keyword sets overlap the
// given one.
func (s *ConsultationService) RelatedByKeywords(ctx context.Context, keywords []string) ([]*entities.Consultation, error) {
	if len(keywords) == 0 {
		return nil, apperrors.NewMissingFieldError("keywords")
	}
	return s.consultations.FindByKeywords(ctx, keywords)
}

// Search ranks stored consultations against a free-text query.
func (s *ConsultationService) Search(ctx context.Context, query string, topK int) ([]entities.SimilarityResult, error) {
	return s.retrieval.Search(ctx, query, topK)
}

// RegisterPatient creates a patient profile.
func (s *ConsultationService) RegisterPatient(ctx context.Context, patient *entities.Patient) error {
	if patient == nil || strings.TrimSpace(patient.PatientKey) == "" {
		return apperrors.NewMissingFieldError("patient_key")
	}
	return s.patients.Create(ctx, patient)
}

// GetPatient returns one patient profile.
func (s *ConsultationService) GetPatient(ctx context.Context, patientKey string) (*entities.Patient, error) {
	if strings.TrimSpace(patientKey) == "" {
		return nil, apperrors.NewMissingFieldError("patient_key")
	}
	return s.patients.GetByKey(ctx, patientKey)
}

// medicalHistory joins the patient's prior summaries into one string. Both
// an empty history and a retrieval failure yield the sentinel: the report
// must still be generated.
func (s *ConsultationService) medicalHistory(ctx context.Context, patientKey string) string {
	prior, err := s.consultations.FindByPatient(ctx, patientKey)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("patient_key", patientKey).
			Msg("history retrieval failed, proceeding without history")
		return NoHistorySentinel
	}

	var summaries []string
	for _, record := range prior {
		if record.Summary != "" {
			summaries = append(summaries, record.Summary)
		}
	}
	if len(summaries) == 0 {
		return NoHistorySentinel
	}
	return strings.Join(summaries, "; ")
}

func (s *ConsultationService) generateReport(ctx context.Context, req *ConsultationRequest, patient *entities.Patient, history string) (*entities.ConsultationReport, error) {
	notes := req.AdditionalNotes
	if notes == "" {
		notes = notProvided
	}
	additionalInfo := req.AdditionalMedicalInfo
	if additionalInfo == "" {
		additionalInfo = notProvided
	}

	task, err := s.orchestrator.Dispatch(ctx, entities.StageReportGeneration, StageInputs{
		"conversation":                   req.Conversation,
		"patient_information":            formatPatient(patient),
		"medical_history":                history,
		"additional_notes":               notes,
		"additional_medical_information": additionalInfo,
	})
	if err != nil {
		return nil, err
	}

	task, err = s.orchestrator.Await(ctx, task.ID, 0)
	if err != nil {
		return nil, err
	}
	if task.State == entities.TaskStateFailed {
		return nil, apperrors.NewProviderError(
			fmt.Sprintf("report generation failed: %s", task.Error), nil,
		)
	}

	var report entities.ConsultationReport
	if err := json.Unmarshal(task.Result, &report); err != nil {
		return nil, apperrors.NewInternalError("failed to decode generated report", err)
	}
	return &report, nil
}

// insertWithNextReportID assigns reportID = max existing + 1 for the
// patient (1 for a first consultation) and inserts. A unique-constraint
// conflict means a concurrent run took the ID; recompute and retry.
func (s *ConsultationService) insertWithNextReportID(ctx context.Context, consultation *entities.Consultation) error {
	for attempt := 0; attempt < reportIDMaxAttempts; attempt++ {
		maxID, err := s.consultations.MaxReportID(ctx, consultation.PatientKey)
		switch {
		case apperrors.IsNotFound(err):
			consultation.ReportID = 1
		case err != nil:
			return err
		default:
			consultation.ReportID = maxID + 1
		}

		err = s.consultations.Insert(ctx, consultation)
		if err == nil {
			return nil
		}
		if !apperrors.IsConflict(err) {
			return err
		}

		observability.LoggerFromContext(ctx).Info().
			Str("patient_key", consultation.PatientKey).
			Int("report_id", consultation.ReportID).
			Msg("report id taken by concurrent run, retrying")
	}

	return apperrors.NewConflictError(fmt.Sprintf(
		"could not assign a report id for patient after %d attempts", reportIDMaxAttempts,
	))
}

func formatPatient(patient *entities.Patient) string {
	return fmt.Sprintf(
		"Name: %s\nAge: %s\nSex: %s\nOccupation: %s\nChronic diseases: %s\nAllergies: %s",
		valueOr(patient.FullName), valueOr(patient.Age), valueOr(patient.Sex), valueOr(patient.Occupation),
		listOr(patient.ChronicDiseases), listOr(patient.Allergies),
	)
}

func valueOr(value string) string {
	if strings.TrimSpace(value) == "" {
		return notProvided
	}
	return value
}

func listOr(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}
