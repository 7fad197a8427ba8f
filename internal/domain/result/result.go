package result

// Document is a single indexed abstract as returned by the backend.
type Document struct {
	ID         string
	Title      string
	ClusterNum int
	Snippets   []string
	// Fields holds every returned field, including the ones lifted above.
	Fields map[string]any
}

// Field returns a passthrough field value.
func (d *Document) Field(name string) any { return d.Fields[name] }

// FacetCount is one (value, count) facet bucket.
type FacetCount struct {
	Value string
	Count string
}

// Group is one backend group: the documents sharing a cluster number.
type Group struct {
	Value     string // raw group value as returned by the backend
	ClusterID int
	NumFound  int
	Documents []Document
}

// Grouping is the grouped section for one field.
type Grouping struct {
	Matches int
	Groups  []Group
}

// Set is the structured outcome of a single backend round trip.
type Set struct {
	Hits      int
	Documents []Document
	// Facets maps a field to its interleaved [value, count, value, count...] list.
	Facets map[string][]string
	// Grouped maps the group field to its groups, in backend order.
	Grouped map[string]Grouping
	// Highlighting maps document id -> field -> snippets.
	Highlighting map[string]map[string][]string
}

// ClusterIDs returns the cluster number of every document, in order.
func (s *Set) ClusterIDs() []int {
	ids := make([]int, 0, len(s.Documents))
	for i := range s.Documents {
		ids = append(ids, s.Documents[i].ClusterNum)
	}
	return ids
}

// ClusterSummary is one row of the per-cluster listing views.
type ClusterSummary struct {
	ClusterID int
	Hits      int
	Documents []Document
	// Keywords is the cluster's keyword set in display order.
	Keywords []string
	// Headings are the keywords that are also subject headings.
	Headings []string
}
