package query

import (
	"net/url"
	"sort"
	"strconv"
)

// Backend parameter names. They must match Solr verbatim.
const (
	Rows        = "rows"
	Start       = "start"
	FilterQuery = "fq"
	FieldList   = "fl"

	Facet      = "facet"
	FacetField = "facet.field"

	Group      = "group"
	GroupField = "group.field"
	GroupLimit = "group.limit"

	Highlight         = "hl"
	HighlightField    = "hl.fl"
	HighlightSnippets = "hl.snippets"
	HighlightMethod   = "hl.method"
	HighlightFragSize = "hl.fragsize"
)

// Params is a set of backend query options. Built fresh per request.
type Params map[string]string

// Set stores a string option and returns p for chaining.
func (p Params) Set(name, value string) Params {
	p[name] = value
	return p
}

// SetInt stores an integer option.
func (p Params) SetInt(name string, value int) Params {
	p[name] = strconv.Itoa(value)
	return p
}

// Get returns the option value or "".
func (p Params) Get(name string) string { return p[name] }

// Has reports whether the option is set.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Int parses an integer option. Missing or malformed values yield 0, false.
func (p Params) Int(name string) (int, bool) {
	v, ok := p[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Names returns option names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Values encodes the options as URL values. Empty filter queries are skipped:
// an empty fq means "unfiltered", not "match nothing".
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		if k == FilterQuery && val == "" {
			continue
		}
		v.Set(k, val)
	}
	return v
}
