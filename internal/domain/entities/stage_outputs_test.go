package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinova/medassist/internal/domain/entities"
)

func TestConsultationReport_Validate(t *testing.T) {
	valid := entities.ConsultationReport{
		Symptoms:  []string{"fever", "dry cough"},
		Pathology: "Influenza",
		Treatment: []string{"rest", "paracetamol"},
		Keywords:  []string{"flu"},
		Summary:   "Flu-like illness, supportive care.",
	}

	t.Run("valid report", func(t *testing.T) {
		r := valid
		assert.NoError(t, r.Validate())
	})

	t.Run("missing pathology", func(t *testing.T) {
		r := valid
		r.Pathology = ""
		assert.Error(t, r.Validate())
	})

	t.Run("missing summary", func(t *testing.T) {
		r := valid
		r.Summary = ""
		assert.Error(t, r.Validate())
	})

	t.Run("nil list fields", func(t *testing.T) {
		r := valid
		r.Keywords = nil
		assert.Error(t, r.Validate())
	})

	t.Run("empty lists are acceptable", func(t *testing.T) {
		r := valid
		r.Symptoms = []string{}
		r.Treatment = []string{}
		r.Keywords = []string{}
		assert.NoError(t, r.Validate())
	})
}

func TestListOutputs_Validate(t *testing.T) {
	t.Run("anomalies present", func(t *testing.T) {
		out := entities.PrescriptionAnomalies{PrescriptionAnomalies: []string{}}
		assert.NoError(t, out.Validate(), "an empty anomaly list is a legitimate clean result")
	})

	t.Run("anomalies missing", func(t *testing.T) {
		out := entities.PrescriptionAnomalies{}
		assert.Error(t, out.Validate())
	})

	t.Run("follow-up questions missing", func(t *testing.T) {
		out := entities.FollowUpQuestions{}
		assert.Error(t, out.Validate())
	})

	t.Run("search propositions present", func(t *testing.T) {
		out := entities.SearchPropositions{SearchPropositions: []string{"influenza treatment adults"}}
		assert.NoError(t, out.Validate())
	})
}

func TestTextOutputs_Validate(t *testing.T) {
	t.Run("extracted ordonnance", func(t *testing.T) {
		out := entities.ExtractedOrdonnance{ExtractedData: "amoxicillin 500mg x3/day"}
		assert.NoError(t, out.Validate())

		out.ExtractedData = ""
		assert.Error(t, out.Validate())
	})

	t.Run("ordonnance summary", func(t *testing.T) {
		out := entities.OrdonnanceSummary{Summary: "Two active prescriptions."}
		assert.NoError(t, out.Validate())

		out.Summary = ""
		assert.Error(t, out.Validate())
	})

	t.Run("search summary requires both fields", func(t *testing.T) {
		out := entities.SearchSummary{SearchSummary: "Evidence supports early antivirals."}
		assert.Error(t, out.Validate(), "key_insights must be present")

		out.KeyInsights = []string{"start within 48h"}
		assert.NoError(t, out.Validate())
	})
}

func TestTaskState_Terminal(t *testing.T) {
	assert.False(t, entities.TaskStateProcessing.Terminal())
	assert.True(t, entities.TaskStateCompleted.Terminal())
	assert.True(t, entities.TaskStateFailed.Terminal())
}
