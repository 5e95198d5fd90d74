package entities

// Consultation is one synthesized report per patient encounter. The
// embedding is absent until the backfill job computes it from the summary.
type Consultation struct {
	ReportID   int       `json:"report_id"`
	PatientKey string    `json:"patient_key"`
	Symptoms   []string  `json:"symptoms"`
	Pathology  string    `json:"pathology"`
	Treatment  []string  `json:"treatment"`
	Keywords   []string  `json:"keywords"`
	Date       string    `json:"date"`
	Summary    string    `json:"summary"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// HasEmbedding reports whether the record has been backfilled.
func (c *Consultation) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// EmbeddedSummary is the projection of a consultation used for similarity
// ranking: the report identity, the text that was embedded and its vector.
type EmbeddedSummary struct {
	ReportID   int
	PatientKey string
	Summary    string
	Embedding  []float32
}

// SimilarityResult is one ranked hit from a similarity search. It is
// ephemeral and never persisted.
type SimilarityResult struct {
	ReportID int     `json:"report_id"`
	Summary  string  `json:"summary"`
	Score    float64 `json:"score"`
}
