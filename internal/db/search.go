package db

// Filter is a pre-filter applied before KNN scoring or list queries.
// AnyTags groups are OR within a field and AND across fields; NotTags negate.
type Filter struct {
	AnyTags map[string][]string
	NotTags map[string][]string
	Numeric []NumericRange
}

// NumericRange restricts a numeric field. Nil bounds are open (-inf/+inf).
type NumericRange struct {
	Field string
	Min   *float64
	Max   *float64
}

// IsEmpty reports whether the filter has no conditions.
func (f Filter) IsEmpty() bool {
	return len(f.AnyTags) == 0 && len(f.NotTags) == 0 && len(f.Numeric) == 0
}

// KNNQuery describes a vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	Filter       Filter
	ReturnFields []string
}

// SearchEntry is one raw FT.SEARCH hit.
type SearchEntry struct {
	Key string
	// Score is cosine similarity in [0,1] for KNN queries, zero otherwise.
	Score  float64
	Fields map[string]string
}

// SearchResult is a raw FT.SEARCH response.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}
