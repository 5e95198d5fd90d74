package providers

import (
	"context"

	"github.com/clinova/medassist/internal/domain/entities"
)

// ArticleSearchProvider queries a medical literature index.
type ArticleSearchProvider interface {
	// SearchArticles returns up to retMax article summaries matching the
	// query. An empty result is not an error.
	SearchArticles(ctx context.Context, query string, retMax int) (*entities.ArticleSearchResult, error)

	// FetchAbstract returns the plain-text abstract of one article, or a
	// NOT_FOUND error when the article has none.
	FetchAbstract(ctx context.Context, pmid string) (string, error)
}

// ConditionSearcher looks up clinical condition terminology.
type ConditionSearcher interface {
	SearchConditions(ctx context.Context, terms string, maxList int) (*entities.ConditionSearchResult, error)
}
