package services

import (
	"fmt"
	"strings"
)

// System prompts instruct the model to answer with JSON only; the stage
// service rejects anything that does not parse against the stage schema.

const anomalyDetectionSystemPrompt = `You are a medical AI assistant. You detect anomalies in a patient's behaviour related to their medication prescription. Return ONLY valid JSON with this schema:
{
  "prescription_anomalies": string[] (each item one discrepancy or irregularity; empty array when nothing is anomalous)
}
Do not include medical advice beyond the detected anomalies.`

const ordonnanceExtractionSystemPrompt = `You are a medical AI assistant. You extract the medication data from a doctor's prescription. Return ONLY valid JSON with this schema:
{
  "extracted_data": string (a clear, concise paragraph listing medication names, dosages and frequencies)
}`

const ordonnanceSummarySystemPrompt = `You are a medical AI assistant. You summarize multiple doctor's prescriptions into a concise format. Return ONLY valid JSON with this schema:
{
  "summary": string (medication names, dosages and frequencies for each prescription)
}`

const searchSummarySystemPrompt = `You are a medical AI assistant. You summarize medical articles with a focus on one patient's situation. Return ONLY valid JSON with this schema:
{
  "search_summary": string (a few sentences with the most relevant information from the articles),
  "key_insights": string[] (the most important insights related to the patient's condition)
}
Use precise medical terminology.`

const followUpQuestionsSystemPrompt = `You are a medical AI assistant. You generate the 4 most pertinent follow-up questions based on a conversation between a doctor and a patient. Return ONLY valid JSON with this schema:
{
  "follow_up_questions": string[] (exactly 4 questions relevant to the symptoms and history discussed)
}`

const pertinentPointsSystemPrompt = `You are a medical AI assistant. You extract the 4 most pertinent medical points from a conversation between a doctor and a patient. A pertinent point is any information the doctor should not overlook. Return ONLY valid JSON with this schema:
{
  "pertinent_medical_points": string[] (exactly 4 points crucial for diagnosis or treatment planning)
}`

const searchPropositionsSystemPrompt = `You are a medical AI assistant. You propose the 4 most pertinent medical literature searches based on a conversation between a doctor and a patient. The queries must target niche medical topics tied to the conversation, never general ones, and must not repeat previous searches. Return ONLY valid JSON with this schema:
{
  "search_propositions": string[] (exactly 4 search queries)
}`

const reportGenerationSystemPrompt = `You are a medical AI assistant. You generate a structured consultation report from a doctor-patient conversation and the patient's context. Return ONLY valid JSON with this schema:
{
  "symptoms": string[] (symptoms reported or observed),
  "pathology": string (the diagnosed or suspected condition),
  "treatment": string[] (prescribed or recommended treatments),
  "keywords": string[] (lowercase keywords indexing this consultation),
  "summary": string (a precise, concise narrative of the encounter)
}
If information is missing write "Not provided" rather than inventing it. Use professional medical terminology.`

func buildAnomalyDetectionPrompt(prescription, medicationHistory string) string {
	return fmt.Sprintf(
		"#### Doctor's Prescription\n%s\n\n#### Patient's Historical Medication Data\n%s",
		prescription, medicationHistory,
	)
}

func buildOrdonnanceExtractionPrompt(prescription string) string {
	return fmt.Sprintf("#### Doctor's Prescription\n%s", prescription)
}

func buildOrdonnanceSummaryPrompt(prescriptions []string) string {
	var b strings.Builder
	b.WriteString("#### Doctor's Prescriptions\n")
	for i, prescription := range prescriptions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, prescription)
	}
	return b.String()
}

func buildSearchSummaryPrompt(condition, articles string) string {
	return fmt.Sprintf(
		"#### Patient Medical Condition\n%s\n\n#### Medical Articles\n%s",
		condition, articles,
	)
}

func buildFollowUpQuestionsPrompt(conversation string) string {
	return fmt.Sprintf("#### Conversation between Doctor and Patient\n%s", conversation)
}

func buildPertinentPointsPrompt(conversation, previousHistory string) string {
	return fmt.Sprintf(
		"#### Conversation between Doctor and Patient\n%s\n\n#### Patient Previous Medical History\n%s",
		conversation, previousHistory,
	)
}

func buildSearchPropositionsPrompt(conversation, searchHistory string) string {
	return fmt.Sprintf(
		"#### Conversation between Doctor and Patient\n%s\n\n#### Previous Search History (do not repeat these)\n%s",
		conversation, searchHistory,
	)
}

func buildReportGenerationPrompt(conversation, patientInfo, medicalHistory, notes, additionalInfo string) string {
	return fmt.Sprintf(
		"#### Conversation between Doctor and Patient\n%s\n\n#### Patient Information\n%s\n\n#### Medical History\n%s\n\n#### Additional Notes\n%s\n\n#### Additional Medical Information\n%s",
		conversation, patientInfo, medicalHistory, notes, additionalInfo,
	)
}
