package search

import (
	"github.com/kailas-cloud/clustersearch/internal/domain/query"
	"github.com/kailas-cloud/clustersearch/internal/domain/result"
)

// Config controls collections, page sizes and fan-out limits.
type Config struct {
	KeywordCollection  string
	DocumentCollection string
	// KeywordField holds the comma-separated cluster keywords in the keyword collection.
	KeywordField string

	PageSize       int
	GroupLimit     int
	PreviewRows    int
	MaxClusterRows int
	MaxClauses     int
	KeywordCap     int

	Highlight query.HighlightOptions

	FanoutConcurrency int
	FilterStopwords   bool
}

// Defaults.
const (
	DefaultKeywordCollection  = "clusterkw"
	DefaultDocumentCollection = "abstracts"
	DefaultKeywordField       = "keywords"
	DefaultPreviewRows        = 3
	DefaultFanoutConcurrency  = 8
	DefaultHighlightField     = "abstract"
	DefaultHighlightSnippets  = 3
	DefaultHighlightFragSize  = 200
)

// DefaultConfig returns the configuration used against the stock cores.
func DefaultConfig() Config {
	c := Config{FilterStopwords: true}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.KeywordCollection == "" {
		c.KeywordCollection = DefaultKeywordCollection
	}
	if c.DocumentCollection == "" {
		c.DocumentCollection = DefaultDocumentCollection
	}
	if c.KeywordField == "" {
		c.KeywordField = DefaultKeywordField
	}
	if c.PageSize <= 0 {
		c.PageSize = query.DefaultPageSize
	}
	if c.GroupLimit <= 0 {
		c.GroupLimit = query.DefaultGroupLimit
	}
	if c.PreviewRows <= 0 {
		c.PreviewRows = DefaultPreviewRows
	}
	if c.MaxClusterRows <= 0 {
		c.MaxClusterRows = query.DefaultMaxClusterRows
	}
	if c.MaxClauses <= 0 {
		c.MaxClauses = query.DefaultMaxClauses
	}
	if c.KeywordCap <= 0 {
		c.KeywordCap = result.DefaultKeywordCap
	}
	if c.Highlight.Field == "" {
		c.Highlight.Field = DefaultHighlightField
	}
	if c.Highlight.Snippets <= 0 {
		c.Highlight.Snippets = DefaultHighlightSnippets
	}
	if c.Highlight.FragSize <= 0 {
		c.Highlight.FragSize = DefaultHighlightFragSize
	}
	if c.Highlight.Method == "" {
		c.Highlight.Method = query.DefaultHighlightMethod
	}
	if c.FanoutConcurrency <= 0 {
		c.FanoutConcurrency = DefaultFanoutConcurrency
	}
}
