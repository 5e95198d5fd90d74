package handlers

import (
	"net/http"
	"strconv"

	"github.com/clinova/medassist/internal/domain/providers"
)

// ArticleHandler serves direct literature and terminology lookups that do
// not go through the task queues.
type ArticleHandler struct {
	articles   providers.ArticleSearchProvider
	conditions providers.ConditionSearcher
}

// NewArticleHandler creates a new article handler.
func NewArticleHandler(articles providers.ArticleSearchProvider, conditions providers.ConditionSearcher) *ArticleHandler {
	return &ArticleHandler{
		articles:   articles,
		conditions: conditions,
	}
}

// GetAbstract handles GET /api/articles/{pmid}/abstract.
func (h *ArticleHandler) GetAbstract(w http.ResponseWriter, r *http.Request) {
	pmid := r.PathValue("pmid")

	abstract, err := h.articles.FetchAbstract(r.Context(), pmid)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"pmid":     pmid,
		"abstract": abstract,
	})
}

// SearchConditions handles GET /api/conditions?terms=...&max_list=N.
func (h *ArticleHandler) SearchConditions(w http.ResponseWriter, r *http.Request) {
	terms := r.URL.Query().Get("terms")
	maxList := 0
	if raw := r.URL.Query().Get("max_list"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "max_list must be a positive integer")
			return
		}
		maxList = parsed
	}

	result, err := h.conditions.SearchConditions(r.Context(), terms, maxList)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
