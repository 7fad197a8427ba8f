package result

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/clustersearch/internal/domain/vocabulary"
)

// DefaultKeywordCap bounds the tokens taken from a cluster keyword string.
const DefaultKeywordCap = 100

var bracketStripper = strings.NewReplacer("[", "", "]", "")

// CleanTitle removes every '[' and ']' from a title.
func CleanTitle(title string) string {
	return bracketStripper.Replace(title)
}

// CleanDocuments cleans titles in place.
func CleanDocuments(docs []Document) {
	for i := range docs {
		docs[i].Title = CleanTitle(docs[i].Title)
		if _, ok := docs[i].Fields["title"]; ok {
			docs[i].Fields["title"] = docs[i].Title
		}
	}
}

// Clean cleans the titles of top-level and grouped documents.
func (s *Set) Clean() {
	CleanDocuments(s.Documents)
	for field, g := range s.Grouped {
		for i := range g.Groups {
			CleanDocuments(g.Groups[i].Documents)
		}
		s.Grouped[field] = g
	}
}

// FormatFacets pairs an interleaved [value, count, ...] list. A trailing
// unpaired element is dropped.
func FormatFacets(flat []string) []FacetCount {
	out := make([]FacetCount, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		out = append(out, FacetCount{Value: flat[i], Count: flat[i+1]})
	}
	return out
}

// SortGroups returns groups ordered by NumFound descending. Ties keep their
// original relative order.
func SortGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NumFound > out[j].NumFound
	})
	return out
}

// Matcher reports set membership.
type Matcher interface {
	Contains(token string) bool
}

// KeywordSet splits a comma-separated keyword string into a set of at most
// limit normalized tokens. Tokens matched by any stop set are discarded.
// Duplicates collapse, so the result may be smaller than limit.
func KeywordSet(raw string, limit int, stop ...Matcher) map[string]struct{} {
	if limit <= 0 {
		limit = DefaultKeywordCap
	}
	parts := strings.Split(raw, ",")
	if len(parts) > limit {
		parts = parts[:limit]
	}
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		tok := vocabulary.Normalize(p)
		if tok == "" || matchesAny(tok, stop) {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

func matchesAny(tok string, stop []Matcher) bool {
	for _, m := range stop {
		if m != nil && m.Contains(tok) {
			return true
		}
	}
	return false
}

// SortedKeywords returns set members in lexical order for display.
func SortedKeywords(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Headings returns the keywords that the subject-heading set contains.
func Headings(keywords []string, headings Matcher) []string {
	if headings == nil {
		return nil
	}
	var out []string
	for _, k := range keywords {
		if headings.Contains(k) {
			out = append(out, k)
		}
	}
	return out
}

// RankClusters drops clusters without hits and orders the rest by hits
// descending, keeping the input order for ties.
func RankClusters(clusters []ClusterSummary) []ClusterSummary {
	out := make([]ClusterSummary, 0, len(clusters))
	for _, c := range clusters {
		if c.Hits > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hits > out[j].Hits
	})
	return out
}

// AttachSnippets copies highlight snippets for field onto matching documents.
func AttachSnippets(docs []Document, highlighting map[string]map[string][]string, field string) {
	if len(highlighting) == 0 {
		return
	}
	for i := range docs {
		if byField, ok := highlighting[docs[i].ID]; ok {
			docs[i].Snippets = byField[field]
		}
	}
}
