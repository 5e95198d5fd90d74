package knowledge

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clinova/medassist/internal/domain/entities"
	"github.com/clinova/medassist/internal/domain/providers"
	"github.com/clinova/medassist/pkg/config"
	apperrors "github.com/clinova/medassist/pkg/errors"
)

const (
	defaultPubMedBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	defaultHTTPTimeout   = 10 * time.Second
	abstractCacheTTL     = 24 * time.Hour
)

// PubMedAdapter searches medical literature through the NCBI E-utilities.
// A search is two round trips: esearch resolves the query to PMIDs, then
// esummary expands them into article metadata. Abstracts are fetched
// separately through efetch and cached, since they never change.
type PubMedAdapter struct {
	baseURL    string
	retMax     int
	httpClient *http.Client
	cache      providers.CacheProvider
}

// NewPubMedAdapter creates a new PubMed adapter. The cache is optional.
func NewPubMedAdapter(cfg *config.PubMedConfig, cache providers.CacheProvider) providers.ArticleSearchProvider {
	baseURL := defaultPubMedBaseURL
	retMax := 5
	if cfg != nil {
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		if cfg.DefaultRetMax > 0 {
			retMax = cfg.DefaultRetMax
		}
	}
	return &PubMedAdapter{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		retMax:     retMax,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		cache:      cache,
	}
}

type esearchEnvelope struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryDoc struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	PubDate string `json:"pubdate"`
	Source  string `json:"source"`
}

type esummaryEnvelope struct {
	Result map[string]json.RawMessage `json:"result"`
}

// SearchArticles returns up to retMax article summaries matching the query.
func (a *PubMedAdapter) SearchArticles(ctx context.Context, query string, retMax int) (*entities.ArticleSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewMissingFieldError("query")
	}
	if retMax <= 0 {
		retMax = a.retMax
	}

	ids, err := a.search(ctx, query, retMax)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &entities.ArticleSearchResult{
			Query:            query,
			NumArticlesFound: 0,
			Articles:         []entities.Article{},
		}, nil
	}

	articles, err := a.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &entities.ArticleSearchResult{
		Query:            query,
		NumArticlesFound: len(articles),
		Articles:         articles,
	}, nil
}

func (a *PubMedAdapter) search(ctx context.Context, query string, retMax int) ([]string, error) {
	params := url.Values{
		"db":      []string{"pubmed"},
		"term":    []string{query},
		"retmax":  []string{fmt.Sprintf("%d", retMax)},
		"retmode": []string{"json"},
	}

	var envelope esearchEnvelope
	if err := a.getJSON(ctx, "/esearch.fcgi", params, &envelope); err != nil {
		return nil, err
	}
	return envelope.ESearchResult.IDList, nil
}

func (a *PubMedAdapter) summaries(ctx context.Context, ids []string) ([]entities.Article, error) {
	params := url.Values{
		"db":      []string{"pubmed"},
		"id":      []string{strings.Join(ids, ",")},
		"retmode": []string{"json"},
	}

	var envelope esummaryEnvelope
	if err := a.getJSON(ctx, "/esummary.fcgi", params, &envelope); err != nil {
		return nil, err
	}

	// Preserve the esearch ranking order; the result map is unordered.
	articles := make([]entities.Article, 0, len(ids))
	for _, id := range ids {
		raw, ok := envelope.Result[id]
		if !ok {
			continue
		}
		var doc esummaryDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		articles = append(articles, entities.Article{
			PMID:    id,
			Title:   doc.Title,
			PubDate: doc.PubDate,
			Source:  doc.Source,
		})
	}
	return articles, nil
}

type efetchArticleSet struct {
	XMLName  xml.Name `xml:"PubmedArticleSet"`
	Articles []struct {
		AbstractTexts []struct {
			Label string `xml:"Label,attr"`
			Text  string `xml:",chardata"`
		} `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	} `xml:"PubmedArticle"`
}

// FetchAbstract returns the plain-text abstract of one article.
func (a *PubMedAdapter) FetchAbstract(ctx context.Context, pmid string) (string, error) {
	if strings.TrimSpace(pmid) == "" {
		return "", apperrors.NewMissingFieldError("pmid")
	}

	cacheKey := "pubmed:abstract:" + pmid
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			return string(cached), nil
		}
	}

	params := url.Values{
		"db":      []string{"pubmed"},
		"id":      []string{pmid},
		"rettype": []string{"abstract"},
		"retmode": []string{"xml"},
	}

	body, err := a.get(ctx, "/efetch.fcgi", params)
	if err != nil {
		return "", err
	}

	var set efetchArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return "", apperrors.NewProviderError("failed to parse abstract response", err)
	}

	var parts []string
	for _, article := range set.Articles {
		for _, text := range article.AbstractTexts {
			trimmed := strings.TrimSpace(text.Text)
			if trimmed == "" {
				continue
			}
			if text.Label != "" {
				trimmed = text.Label + ": " + trimmed
			}
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("no abstract available for article %s", pmid))
	}

	abstract := strings.Join(parts, "\n")
	if a.cache != nil {
		_ = a.cache.Set(ctx, cacheKey, []byte(abstract), abstractCacheTTL)
	}
	return abstract, nil
}

func (a *PubMedAdapter) getJSON(ctx context.Context, path string, params url.Values, dest any) error {
	body, err := a.get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return apperrors.NewProviderError("failed to parse pubmed response", err)
	}
	return nil
}

func (a *PubMedAdapter) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := a.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build pubmed request", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewProviderError("pubmed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewProviderError(
			fmt.Sprintf("pubmed request returned status %d", resp.StatusCode), nil,
		)
	}

	return readAll(resp.Body)
}
