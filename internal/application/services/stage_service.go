package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/providers"
	apperrors "github.com/clinova/medassist/pkg/errors"
	"github.com/clinova/medassist/pkg/retry"
)

// stageOutput is implemented by every stage schema.
type stageOutput interface {
	Validate() error
}

// StageService executes individual pipeline stages synchronously. The
// orchestrator wraps it for asynchronous dispatch; callers that want an
// inline answer use it directly.
type StageService struct {
	chat     providers.ChatProvider
	articles providers.ArticleSearchProvider
	retryCfg retry.Config
}

// NewStageService creates a new stage service.
func NewStageService(chat providers.ChatProvider, articles providers.ArticleSearchProvider) *StageService {
	return &StageService{
		chat:     chat,
		articles: articles,
		retryCfg: retry.ProviderConfig(),
	}
}

// Execute validates the inputs against the stage's configuration record
// and runs the stage, returning the schema-validated result as JSON.
func (s *StageService) Execute(ctx context.Context, kind entities.StageKind, inputs StageInputs) (json.RawMessage, error) {
	spec, err := StageSpecFor(kind)
	if err != nil {
		return nil, err
	}
	if err := spec.ValidateInputs(inputs); err != nil {
		return nil, err
	}

	result, err := spec.run(ctx, s, inputs)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode stage result", err)
	}
	return payload, nil
}

// generate runs one prompt pair against the model and decodes the answer
// into the stage schema. Provider failures are retried with backoff;
// malformed output is surfaced as a VALIDATION error, never retried.
func (s *StageService) generate(ctx context.Context, systemPrompt, userPrompt string, out stageOutput) error {
	var raw string
	err := retry.DoIf(ctx, s.retryCfg, func() error {
		var genErr error
		raw, genErr = s.chat.Generate(ctx, systemPrompt, userPrompt)
		return genErr
	}, apperrors.IsProvider)
	if err != nil {
		return err
	}

	cleaned := stripCodeFence(raw)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return apperrors.NewValidationError("model output is not well-formed JSON", err)
	}
	if err := out.Validate(); err != nil {
		return apperrors.NewValidationError("model output failed schema validation", err)
	}
	return nil
}

// stripCodeFence removes a surrounding Markdown code fence, which models
// add even when told to answer with bare JSON.
func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}
