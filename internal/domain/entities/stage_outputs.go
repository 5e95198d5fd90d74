package entities

import "fmt"

// Structured output schemas for the LLM stages. Each schema validates its
// own shape after decoding; a schema that fails validation is surfaced to
// the caller as an explicit error, never as a partially-filled result.

// PrescriptionAnomalies is the anomaly-detection output.
type PrescriptionAnomalies struct {
	PrescriptionAnomalies []string `json:"prescription_anomalies"`
}

func (p *PrescriptionAnomalies) Validate() error {
	if p.PrescriptionAnomalies == nil {
		return fmt.Errorf("prescription_anomalies is missing")
	}
	return nil
}

// ExtractedOrdonnance is the free-text ordonnance extraction output.
type ExtractedOrdonnance struct {
	ExtractedData string `json:"extracted_data"`
}

func (e *ExtractedOrdonnance) Validate() error {
	if e.ExtractedData == "" {
		return fmt.Errorf("extracted_data is empty")
	}
	return nil
}

// OrdonnanceSummary is the multi-prescription summarization output.
type OrdonnanceSummary struct {
	Summary string `json:"summary"`
}

func (o *OrdonnanceSummary) Validate() error {
	if o.Summary == "" {
		return fmt.Errorf("summary is empty")
	}
	return nil
}

// SearchSummary condenses retrieved literature against a patient condition.
type SearchSummary struct {
	SearchSummary string   `json:"search_summary"`
	KeyInsights   []string `json:"key_insights"`
}

func (s *SearchSummary) Validate() error {
	if s.SearchSummary == "" {
		return fmt.Errorf("search_summary is empty")
	}
	if s.KeyInsights == nil {
		return fmt.Errorf("key_insights is missing")
	}
	return nil
}

// FollowUpQuestions suggests questions the clinician should ask next.
type FollowUpQuestions struct {
	FollowUpQuestions []string `json:"follow_up_questions"`
}

func (f *FollowUpQuestions) Validate() error {
	if f.FollowUpQuestions == nil {
		return fmt.Errorf("follow_up_questions is missing")
	}
	return nil
}

// PertinentPoints extracts the medically relevant points of a conversation.
type PertinentPoints struct {
	PertinentMedicalPoints []string `json:"pertinent_medical_points"`
}

func (p *PertinentPoints) Validate() error {
	if p.PertinentMedicalPoints == nil {
		return fmt.Errorf("pertinent_medical_points is missing")
	}
	return nil
}

// SearchPropositions suggests literature queries for the current
// conversation.
type SearchPropositions struct {
	SearchPropositions []string `json:"search_propositions"`
}

func (s *SearchPropositions) Validate() error {
	if s.SearchPropositions == nil {
		return fmt.Errorf("search_propositions is missing")
	}
	return nil
}

// ConsultationReport is the structured report synthesized from a
// conversation plus patient context.
type ConsultationReport struct {
	Symptoms  []string `json:"symptoms"`
	Pathology string   `json:"pathology"`
	Treatment []string `json:"treatment"`
	Keywords  []string `json:"keywords"`
	Summary   string   `json:"summary"`
}

func (r *ConsultationReport) Validate() error {
	if r.Pathology == "" {
		return fmt.Errorf("pathology is empty")
	}
	if r.Summary == "" {
		return fmt.Errorf("summary is empty")
	}
	if r.Symptoms == nil || r.Treatment == nil || r.Keywords == nil {
		return fmt.Errorf("symptoms, treatment and keywords are all required")
	}
	return nil
}
