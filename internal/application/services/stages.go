package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/clinova/medassist/internal/domain/entities"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

// StageInputs is the decoded JSON body of a stage-dispatch request.
type StageInputs map[string]any

// String returns a string field; non-string scalars are stringified.
func (in StageInputs) String(name string) string {
	switch v := in[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// StringList returns a list-of-strings field.
func (in StageInputs) StringList(name string) []string {
	raw, ok := in[name].([]any)
	if !ok {
		return nil
	}
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			items = append(items, s)
		}
	}
	return items
}

// Int returns an integer field, falling back to def when absent or not a
// number.
func (in StageInputs) Int(name string, def int) int {
	switch v := in[name].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (in StageInputs) present(name string) bool {
	v, ok := in[name]
	if !ok || v == nil {
		return false
	}
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value) != ""
	case []any:
		return len(value) > 0
	default:
		return true
	}
}

// StageSpec is the typed configuration record for one pipeline stage:
// which queue it runs on, which input fields must be present, and how it
// executes. Inputs are validated structurally before any task is
// dispatched.
type StageSpec struct {
	Kind     entities.StageKind
	Queue    entities.Queue
	Required []string

	run func(ctx context.Context, s *StageService, in StageInputs) (any, error)
}

// ValidateInputs fails fast with a MISSING_FIELD error for the first
// required field that is absent or blank.
func (spec *StageSpec) ValidateInputs(in StageInputs) error {
	for _, field := range spec.Required {
		if !in.present(field) {
			return apperrors.NewMissingFieldError(field)
		}
	}
	return nil
}

var stageRegistry = map[entities.StageKind]*StageSpec{
	entities.StageAnomalyDetection: {
		Kind:     entities.StageAnomalyDetection,
		Queue:    entities.QueueLLM,
		Required: []string{"doctor_prescription", "patient_medication_history"},
		run: func(ctx context.Context, s *StageService, in StageInputs) (any, error) {
			var out entities.PrescriptionAnomalies
			err := s.generate(ctx,
				anomalyDetectionSystemPrompt,
				buildAnomalyDetectionPrompt(in.String("doctor_prescription"), in.String("patient_medication_history")),
				&out,
			)
			return &out, err
		},
	},
	entities.StageOrdonnanceExtraction: {
		Kind:     entities.StageOrdonnanceExtraction,
		Queue:    entities.QueueLLM,
		Required: []string{"doctor_prescription"},
		run: func(ctx context.Context, s *StageService, in StageInputs) (any, error) {
			var out entities.ExtractedOrdonnance
			err := s.generate(ctx,
				ordonnanceExtractionSystemPrompt,
				buildOrdonnanceExtractionPrompt(in.String("doctor_prescription")),
				&out,
			)
			return &out, err
		},
	},
	entities.StageOrdonnanceSummary: {
		Kind:     entities.StageOrdonnanceSummary,
		Queue:    entities.QueueLLM,
		Required: []string{"doctor_prescriptions"},
		run: func(ctx context.Context, s *StageService, in StageInputs) (any, error) {
			var out entities.OrdonnanceSummary
			err := s.generate(ctx,
				ordonnanceSummarySystemPrompt,
				buildOrdonnanceSummaryPrompt(in.StringList("doctor_prescriptions")),
				&out,
			)
			return &out, err
		},
	},
	entities.StageArticleSearch: {
		Kind:     entities.StageArticleSearch,
		Queue:    entities.QueueAPI,
		Required: []string{"query", "retmax"},
		run: func(ctx context.Context, s *StageService, in StageInputs) (any, error) {
			return s.articles.SearchArticles(ctx, in.String("query"), in.Int("retmax", 0))
		},
	},
	entities.StageSearchSummary: {
		Kind:     entities.StageSearchSummary,
		Queue:    entities.QueueLLM,
		Required: []string{"patient_condition", "medical_articles"},
		run: func(ctx context.Context, s *StageService, in StageInputs) (any, error) {
			var out entities.SearchSummary
			err := s.generate(ctx,
				searchSummarySystemPrompt,
				buildSearchSummaryPrompt(in.String("patient_condition"), in.String("medical_articles")),
				&out,
			)
			return &out, err
		},
	},
	entities.StageFollowUpQuestions: {
		Kind:     entities.StageFollowUpQuestions,
		Queue:    entities.QueueLLM,
		Required: []string{"conversation"},
		run: func(ctx context.Context, s *StageService, in StageInputs) (any, error) {
			var out entities.FollowUpQuestions
			err := s.generate(ctx,
				followUpQuestionsSystemPrompt,
				buildFollowUpQuestionsPrompt(in.String("conversation")),
				&out,
			)
			return &out, err
		},
	},
	entities.StagePertinentPoints: {
		Kind:     entities.StagePertinentPoints,
		Queue:    entities.QueueLLM,
		Required: []string{"conversation", "previous_medical_history"},
		run: func(ctx context.Context, s *StageService, in StageInputs) (any, error) {
			var out entities.PertinentPoints
			err := s.generate(ctx,
				pertinentPointsSystemPrompt,
				buildPertinentPointsPrompt(in.String("conversation"), in.String("previous_medical_history")),
				&out,
			)
			return &out, err
		},
	},
	entities.StageSearchPropositions: {
		Kind:     entities.StageSearchPropositions,
		Queue:    entities.QueueLLM,
		Required: []string{"conversation", "search_history"},
		run: func(ctx context.Context, s *StageService, in StageInputs) (any, error) {
			var out entities.SearchPropositions
			err := s.generate(ctx,
				searchPropositionsSystemPrompt,
				buildSearchPropositionsPrompt(in.String("conversation"), in.String("search_history")),
				&out,
			)
			return &out, err
		},
	},
	entities.StageReportGeneration: {
		Kind:     entities.StageReportGeneration,
		Queue:    entities.QueueLLM,
		Required: []string{"conversation", "patient_information", "medical_history", "additional_notes", "additional_medical_information"},
		run: func(ctx context.Context, s *StageService, in StageInputs) (any, error) {
			var out entities.ConsultationReport
			err := s.generate(ctx,
				reportGenerationSystemPrompt,
				buildReportGenerationPrompt(
					in.String("conversation"),
					in.String("patient_information"),
					in.String("medical_history"),
					in.String("additional_notes"),
					in.String("additional_medical_information"),
				),
				&out,
			)
			return &out, err
		},
	},
}

// StageSpecFor resolves a stage kind to its configuration record.
func StageSpecFor(kind entities.StageKind) (*StageSpec, error) {
	spec, ok := stageRegistry[kind]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("unknown stage: %s", kind))
	}
	return spec, nil
}
