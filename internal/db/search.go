package db

import "github.com/kailas-cloud/clustersearch/internal/domain/query"

// Query is the input for a single search round trip.
type Query struct {
	Collection string
	Term       string // already normalized; "*:*" for match-all
	Params     query.Params
}

// SearchResult is the decoded backend response.
type SearchResult struct {
	NumFound int
	Start    int
	Docs     []Doc
	// FacetFields holds the raw interleaved facet lists per field.
	FacetFields map[string][]any
	// Grouped holds grouped sections per group field.
	Grouped map[string]GroupedField
	// Highlighting maps unique key -> field -> snippets.
	Highlighting map[string]map[string][]string
}

// Doc is a single stored document as a field map.
type Doc map[string]any

// GroupedField is the grouped section for one field.
type GroupedField struct {
	Matches int
	Groups  []GroupEntry
}

// GroupEntry is one group with its document list.
type GroupEntry struct {
	GroupValue any
	NumFound   int
	Docs       []Doc
}
