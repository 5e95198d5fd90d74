package entities

// Article is one PubMed record returned by the literature search.
type Article struct {
	PMID    string `json:"pmid"`
	Title   string `json:"title"`
	PubDate string `json:"pubdate"`
	Source  string `json:"source"`
	Summary string `json:"summary"`
}

// ArticleSearchResult is the outcome of one literature search. A zero
// NumArticlesFound with an empty Articles slice is a genuine empty answer,
// distinct from a failed search.
type ArticleSearchResult struct {
	Query            string    `json:"query"`
	NumArticlesFound int       `json:"num_articles_found"`
	Articles         []Article `json:"articles"`
}

// ConditionMatch is one clinical condition returned by the terminology
// lookup, with its ICD-9 code and any known synonyms.
type ConditionMatch struct {
	Code        string `json:"code"`
	PrimaryName string `json:"primary_name"`
	Detail      string `json:"detail"`
	Synonyms    string `json:"synonyms"`
}

// ConditionSearchResult is the outcome of a clinical-conditions lookup.
type ConditionSearchResult struct {
	Total   int              `json:"total"`
	Matches []ConditionMatch `json:"matches"`
}
