package query

import (
	"strconv"
	"strings"
)

// Defaults mirror the limits of the deployed Solr cores.
const (
	// MatchAll is the wildcard query used for an empty search term.
	MatchAll = "*:*"

	// ClusterField is the field holding the cluster number in both collections.
	ClusterField = "clusterNum"

	DefaultPageSize        = 10
	DefaultMaxClusterRows  = 10000
	DefaultMaxClauses      = 500 // keep below Solr maxBooleanClauses
	DefaultGroupLimit      = 7
	DefaultHighlightMethod = "unified"
)

// HighlightOptions configures snippet extraction.
type HighlightOptions struct {
	Field    string
	Snippets int
	Method   string
	FragSize int
}

// NormalizeTerm maps an empty (or blank) term to the match-all query.
// wildcard reports whether the substitution happened.
func NormalizeTerm(term string) (q string, wildcard bool) {
	t := strings.TrimSpace(term)
	if t == "" {
		return MatchAll, true
	}
	return t, false
}

// Offset returns the start offset for a zero-based page number.
func Offset(pageNum, pageSize int) int {
	if pageNum < 0 || pageSize < 0 {
		return 0
	}
	return pageNum * pageSize
}

// ClusterResolution builds the first-stage query against the keyword
// collection: cluster identifiers only, plus any extra stored fields.
func ClusterResolution(maxRows int, extraFields ...string) Params {
	if maxRows <= 0 {
		maxRows = DefaultMaxClusterRows
	}
	fl := append([]string{ClusterField}, extraFields...)
	return Params{}.
		SetInt(Rows, maxRows).
		Set(FieldList, strings.Join(fl, ","))
}

// DistinctIDs returns at most limit distinct ids in first-seen order.
// Negative ids (documents without a cluster) are skipped.
func DistinctIDs(ids []int, limit int) []int {
	if limit <= 0 {
		limit = DefaultMaxClauses
	}
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, min(len(ids), limit))
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		if _, dup := seen[id]; dup || id < 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ClusterFilter builds a disjunction over at most maxClauses distinct cluster
// ids, in first-seen order. Returns "" for no ids.
func ClusterFilter(field string, ids []int, maxClauses int) string {
	distinct := DistinctIDs(ids, maxClauses)
	if len(distinct) == 0 {
		return ""
	}
	clauses := make([]string, len(distinct))
	for i, id := range distinct {
		clauses[i] = strconv.Itoa(id)
	}
	if len(clauses) == 1 {
		return field + ":" + clauses[0]
	}
	return field + ":(" + strings.Join(clauses, " OR ") + ")"
}

// SecondStageFilter decides the document filter after cluster resolution.
// Wildcard terms are unfiltered by definition; a term that resolved no
// clusters is left unfiltered as well.
func SecondStageFilter(wildcard bool, resolvedIDs []int, maxClauses int) string {
	if wildcard || len(resolvedIDs) == 0 {
		return ""
	}
	return ClusterFilter(ClusterField, resolvedIDs, maxClauses)
}

// Grouped builds a faceted, grouped-by-cluster documents query.
func Grouped(filter string, rows, groupLimit int) Params {
	if rows <= 0 {
		rows = DefaultPageSize
	}
	if groupLimit <= 0 {
		groupLimit = DefaultGroupLimit
	}
	return Params{}.
		Set(FilterQuery, filter).
		SetInt(Rows, rows).
		Set(Facet, "on").
		Set(FacetField, ClusterField).
		Set(Group, "true").
		Set(GroupField, ClusterField).
		SetInt(GroupLimit, groupLimit)
}

// Detail builds a paginated documents query restricted to one cluster.
func Detail(clusterID, rows, start int) Params {
	if rows <= 0 {
		rows = DefaultPageSize
	}
	if start < 0 {
		start = 0
	}
	return Params{}.
		Set(FilterQuery, ClusterFilter(ClusterField, []int{clusterID}, 1)).
		SetInt(Rows, rows).
		SetInt(Start, start)
}

// Highlighted builds a documents query with snippet extraction on one field.
func Highlighted(filter string, rows int, opts HighlightOptions) Params {
	if rows <= 0 {
		rows = DefaultPageSize
	}
	method := opts.Method
	if method == "" {
		method = DefaultHighlightMethod
	}
	p := Params{}.
		Set(FilterQuery, filter).
		SetInt(Rows, rows).
		Set(Highlight, "on").
		Set(HighlightField, opts.Field).
		Set(HighlightMethod, method)
	if opts.Snippets > 0 {
		p.SetInt(HighlightSnippets, opts.Snippets)
	}
	if opts.FragSize > 0 {
		p.SetInt(HighlightFragSize, opts.FragSize)
	}
	return p
}
