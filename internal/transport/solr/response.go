package solr

import "github.com/kailas-cloud/clustersearch/internal/db"

// selectResponse mirrors the wt=json layout of the select handler.
type selectResponse struct {
	Response *struct {
		NumFound int      `json:"numFound"`
		Start    int      `json:"start"`
		Docs     []db.Doc `json:"docs"`
	} `json:"response"`

	FacetCounts *struct {
		FacetFields map[string][]any `json:"facet_fields"`
	} `json:"facet_counts"`

	Grouped map[string]struct {
		Matches int `json:"matches"`
		Groups  []struct {
			GroupValue any `json:"groupValue"`
			DocList    struct {
				NumFound int      `json:"numFound"`
				Docs     []db.Doc `json:"docs"`
			} `json:"doclist"`
		} `json:"groups"`
	} `json:"grouped"`

	Highlighting map[string]map[string][]string `json:"highlighting"`
}

func (r *selectResponse) toResult() *db.SearchResult {
	sr := &db.SearchResult{Highlighting: r.Highlighting}

	if r.Response != nil {
		sr.NumFound = r.Response.NumFound
		sr.Start = r.Response.Start
		sr.Docs = r.Response.Docs
	}

	if r.FacetCounts != nil && len(r.FacetCounts.FacetFields) > 0 {
		sr.FacetFields = r.FacetCounts.FacetFields
	}

	if len(r.Grouped) > 0 {
		sr.Grouped = make(map[string]db.GroupedField, len(r.Grouped))
		for field, g := range r.Grouped {
			gf := db.GroupedField{Matches: g.Matches, Groups: make([]db.GroupEntry, 0, len(g.Groups))}
			for _, e := range g.Groups {
				gf.Groups = append(gf.Groups, db.GroupEntry{
					GroupValue: e.GroupValue,
					NumFound:   e.DocList.NumFound,
					Docs:       e.DocList.Docs,
				})
			}
			sr.Grouped[field] = gf
			// grouped responses carry no top-level response block
			if sr.NumFound == 0 {
				sr.NumFound = g.Matches
			}
		}
	}

	return sr
}
