package search

import "github.com/kailas-cloud/clustersearch/internal/domain/result"

// GroupedPage is the grouped-by-cluster results view.
type GroupedPage struct {
	Term     string
	Wildcard bool
	Matches  int
	// Groups are ordered by member count, largest first.
	Groups []result.Group
	Facets []result.FacetCount
}

// DetailPage is one page of documents from a single cluster.
type DetailPage struct {
	Term      string
	ClusterID int
	PageNum   int
	PageSize  int
	Hits      int
	Documents []result.Document
	HasPrev   bool
	HasNext   bool
}

// ClusterPage is the per-cluster listing used by the keyword and highlighted views.
type ClusterPage struct {
	Term     string
	Wildcard bool
	// Clusters without hits are dropped, the rest ordered by hits descending.
	Clusters []result.ClusterSummary
}
