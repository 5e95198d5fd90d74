package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/providers"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

const (
	clinicalTablesURL    = "https://clinicaltables.nlm.nih.gov/api/conditions/v3/search"
	defaultConditionsMax = 10
)

// ClinicalTablesAdapter looks up condition terminology in the NLM clinical
// tables service. The API answers with a positional JSON array: total hit
// count, matched codes, an unused extra-data slot, then one row of display
// fields per match.
type ClinicalTablesAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewClinicalTablesAdapter creates a new conditions lookup adapter. An
// empty baseURL selects the public NLM endpoint.
func NewClinicalTablesAdapter(baseURL string) providers.ConditionSearcher {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = clinicalTablesURL
	}
	return &ClinicalTablesAdapter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SearchConditions returns conditions matching the given terms.
func (a *ClinicalTablesAdapter) SearchConditions(ctx context.Context, terms string, maxList int) (*entities.ConditionSearchResult, error) {
	if strings.TrimSpace(terms) == "" {
		return nil, apperrors.NewMissingFieldError("terms")
	}
	if maxList <= 0 {
		maxList = defaultConditionsMax
	}

	params := url.Values{
		"terms":   []string{terms},
		"maxList": []string{fmt.Sprintf("%d", maxList)},
		"df":      []string{"primary_name,consumer_name,word_synonyms"},
	}

	endpoint := a.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build conditions request", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewProviderError("conditions request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewProviderError(
			fmt.Sprintf("conditions request returned status %d", resp.StatusCode), nil,
		)
	}

	body, err := readAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseConditionsResponse(body)
}

func parseConditionsResponse(body []byte) (*entities.ConditionSearchResult, error) {
	var positional []json.RawMessage
	if err := json.Unmarshal(body, &positional); err != nil {
		return nil, apperrors.NewProviderError("failed to parse conditions response", err)
	}
	if len(positional) < 4 {
		return nil, apperrors.NewProviderError("conditions response is truncated", nil)
	}

	var total int
	if err := json.Unmarshal(positional[0], &total); err != nil {
		return nil, apperrors.NewProviderError("failed to parse conditions total", err)
	}

	var codes []string
	if err := json.Unmarshal(positional[1], &codes); err != nil {
		return nil, apperrors.NewProviderError("failed to parse condition codes", err)
	}

	var displayRows [][]string
	if err := json.Unmarshal(positional[3], &displayRows); err != nil {
		return nil, apperrors.NewProviderError("failed to parse condition fields", err)
	}

	matches := make([]entities.ConditionMatch, 0, len(codes))
	for i, code := range codes {
		match := entities.ConditionMatch{Code: code}
		if i < len(displayRows) {
			row := displayRows[i]
			if len(row) > 0 {
				match.PrimaryName = row[0]
			}
			if len(row) > 1 {
				match.Detail = row[1]
			}
			if len(row) > 2 {
				match.Synonyms = row[2]
			}
		}
		matches = append(matches, match)
	}

	return &entities.ConditionSearchResult{
		Total:   total,
		Matches: matches,
	}, nil
}

func readAll(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, 4<<20))
	if err != nil {
		return nil, apperrors.NewProviderError("failed to read response body", err)
	}
	return body, nil
}
