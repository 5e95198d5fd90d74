package entities

import (
	"encoding/json"
	"time"
)

// TaskState is the lifecycle state of a dispatched unit of work. The only
// legal transitions are processing -> completed and processing -> failed.
type TaskState string

const (
	TaskStateProcessing TaskState = "processing"
	TaskStateCompleted  TaskState = "completed"
	TaskStateFailed     TaskState = "failed"
)

// Terminal reports whether the state admits no further transition.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

// Queue names a worker pool. Model-bound stages run on the llm queue;
// external lookups run on the api queue so slow model calls cannot starve
// latency-sensitive searches.
type Queue string

const (
	QueueLLM Queue = "llm"
	QueueAPI Queue = "api"
)

// StageKind identifies one pipeline stage.
type StageKind string

const (
	StageAnomalyDetection     StageKind = "detect-prescription-anomalies"
	StageOrdonnanceExtraction StageKind = "extract-ordonnance"
	StageOrdonnanceSummary    StageKind = "summarize-ordonnances"
	StageArticleSearch        StageKind = "search-articles"
	StageSearchSummary        StageKind = "search-summary"
	StageFollowUpQuestions    StageKind = "follow-up-questions"
	StagePertinentPoints      StageKind = "pertinent-points"
	StageSearchPropositions   StageKind = "search-propositions"
	StageReportGeneration     StageKind = "generate-report"
)

// Task is a dispatched unit of work. Result and Error are mutually
// exclusive and each is set at most once, by the executing worker.
type Task struct {
	ID        string          `json:"id"`
	Kind      StageKind       `json:"kind"`
	State     TaskState       `json:"state"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
