package search

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/clustersearch/internal/domain"
	"github.com/kailas-cloud/clustersearch/internal/domain/query"
	"github.com/kailas-cloud/clustersearch/internal/domain/result"
	"github.com/kailas-cloud/clustersearch/internal/domain/vocabulary"
	"github.com/kailas-cloud/clustersearch/internal/metrics"
)

// View labels for fan-out metrics.
const (
	ViewKeyword     = "keyword"
	ViewHighlighted = "highlighted"
)

// Service builds the search pages: it resolves clusters in the keyword
// collection and fetches documents from the document collection.
type Service struct {
	repo       Repository
	exclusions ExclusionSource
	vocab      vocabulary.Vocabulary
	cfg        Config
}

// New creates a search service. exclusions can be nil.
func New(repo Repository, exclusions ExclusionSource, vocab vocabulary.Vocabulary, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{repo: repo, exclusions: exclusions, vocab: vocab, cfg: cfg}
}

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// Grouped returns documents grouped and faceted by cluster. A non-empty term
// is first resolved to cluster ids, which then filter the documents.
func (s *Service) Grouped(ctx context.Context, term string) (*GroupedPage, error) {
	q, wildcard := query.NormalizeTerm(term)

	var ids []int
	if !wildcard {
		resolved, err := s.resolve(ctx, q)
		if err != nil {
			return nil, err
		}
		ids = resolved.ClusterIDs()
	}
	filter := query.SecondStageFilter(wildcard, ids, s.cfg.MaxClauses)

	set, err := s.repo.Query(ctx, s.cfg.DocumentCollection, q,
		query.Grouped(filter, s.cfg.PageSize, s.cfg.GroupLimit))
	if err != nil {
		return nil, fmt.Errorf("grouped documents: %w", err)
	}
	set.Clean()

	grouping := set.Grouped[query.ClusterField]
	return &GroupedPage{
		Term:     term,
		Wildcard: wildcard,
		Matches:  grouping.Matches,
		Groups:   result.SortGroups(grouping.Groups),
		Facets:   result.FormatFacets(set.Facets[query.ClusterField]),
	}, nil
}

// Detail returns one page of documents of a single cluster.
func (s *Service) Detail(ctx context.Context, term string, clusterID, pageNum int) (*DetailPage, error) {
	if clusterID < 0 {
		return nil, fmt.Errorf("%w: cluster id must be non-negative", domain.ErrInvalidRequest)
	}
	if pageNum < 0 {
		return nil, fmt.Errorf("%w: page number must be non-negative", domain.ErrInvalidRequest)
	}
	// the backend start offset is a 32-bit int
	if pageNum > math.MaxInt32/s.cfg.PageSize {
		return nil, fmt.Errorf("%w: page number %d out of range", domain.ErrInvalidRequest, pageNum)
	}

	q, _ := query.NormalizeTerm(term)
	offset := query.Offset(pageNum, s.cfg.PageSize)

	set, err := s.repo.Query(ctx, s.cfg.DocumentCollection, q,
		query.Detail(clusterID, s.cfg.PageSize, offset))
	if err != nil {
		return nil, fmt.Errorf("cluster documents: %w", err)
	}
	set.Clean()

	return &DetailPage{
		Term:      term,
		ClusterID: clusterID,
		PageNum:   pageNum,
		PageSize:  s.cfg.PageSize,
		Hits:      set.Hits,
		Documents: set.Documents,
		HasPrev:   pageNum > 0,
		HasNext:   offset+len(set.Documents) < set.Hits,
	}, nil
}

// Keyword lists the clusters matching term with their keyword sets. Each
// resolved cluster costs one more round trip for its hit count and preview.
func (s *Service) Keyword(ctx context.Context, term string) (*ClusterPage, error) {
	q, wildcard := query.NormalizeTerm(term)

	resolved, err := s.resolve(ctx, q, s.cfg.KeywordField)
	if err != nil {
		return nil, err
	}

	stop, err := s.stopSets(ctx)
	if err != nil {
		return nil, err
	}

	rawKeywords := make(map[int]string)
	for i := range resolved.Documents {
		d := &resolved.Documents[i]
		if _, seen := rawKeywords[d.ClusterNum]; !seen {
			rawKeywords[d.ClusterNum] = d.Text(s.cfg.KeywordField)
		}
	}

	ids := query.DistinctIDs(resolved.ClusterIDs(), s.cfg.MaxClauses)
	clusters, err := s.fanOut(ctx, ViewKeyword, ids, func(ctx context.Context, id int) (result.ClusterSummary, error) {
		set, err := s.repo.Query(ctx, s.cfg.DocumentCollection, q,
			query.Detail(id, s.cfg.PreviewRows, 0))
		if err != nil {
			return result.ClusterSummary{}, err
		}
		set.Clean()

		keywords := result.SortedKeywords(result.KeywordSet(rawKeywords[id], s.cfg.KeywordCap, stop...))
		return result.ClusterSummary{
			ClusterID: id,
			Hits:      set.Hits,
			Documents: set.Documents,
			Keywords:  keywords,
			Headings:  result.Headings(keywords, s.vocab.Headings),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &ClusterPage{Term: term, Wildcard: wildcard, Clusters: result.RankClusters(clusters)}, nil
}

// Highlighted lists matching clusters with highlighted snippets per document.
// The wildcard term has nothing to resolve or highlight against, so it is
// served by a single unfiltered query grouped by cluster locally.
func (s *Service) Highlighted(ctx context.Context, term string) (*ClusterPage, error) {
	q, wildcard := query.NormalizeTerm(term)

	if wildcard {
		params := query.Highlighted("", s.cfg.PageSize, s.cfg.Highlight).
			Set(query.Facet, "on").
			Set(query.FacetField, query.ClusterField)
		set, err := s.repo.Query(ctx, s.cfg.DocumentCollection, q, params)
		if err != nil {
			return nil, fmt.Errorf("highlighted documents: %w", err)
		}
		set.Clean()
		result.AttachSnippets(set.Documents, set.Highlighting, s.cfg.Highlight.Field)
		clusters := byCluster(set.Documents, clusterTotals(set.Facets[query.ClusterField]))
		return &ClusterPage{Term: term, Wildcard: true, Clusters: result.RankClusters(clusters)}, nil
	}

	resolved, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := query.DistinctIDs(resolved.ClusterIDs(), s.cfg.MaxClauses)
	clusters, err := s.fanOut(ctx, ViewHighlighted, ids, func(ctx context.Context, id int) (result.ClusterSummary, error) {
		filter := query.ClusterFilter(query.ClusterField, []int{id}, 1)
		set, err := s.repo.Query(ctx, s.cfg.DocumentCollection, q,
			query.Highlighted(filter, s.cfg.PreviewRows, s.cfg.Highlight))
		if err != nil {
			return result.ClusterSummary{}, err
		}
		set.Clean()
		result.AttachSnippets(set.Documents, set.Highlighting, s.cfg.Highlight.Field)
		return result.ClusterSummary{ClusterID: id, Hits: set.Hits, Documents: set.Documents}, nil
	})
	if err != nil {
		return nil, err
	}

	return &ClusterPage{Term: term, Clusters: result.RankClusters(clusters)}, nil
}

// resolve runs the first stage: cluster ids (and extra fields) matching q in
// the keyword collection.
func (s *Service) resolve(ctx context.Context, q string, extraFields ...string) (*result.Set, error) {
	set, err := s.repo.Query(ctx, s.cfg.KeywordCollection, q,
		query.ClusterResolution(s.cfg.MaxClusterRows, extraFields...))
	if err != nil {
		return nil, fmt.Errorf("resolve clusters: %w", err)
	}
	return set, nil
}

// stopSets returns the token sets removed from cluster keywords.
func (s *Service) stopSets(ctx context.Context) ([]result.Matcher, error) {
	var stop []result.Matcher
	if s.cfg.FilterStopwords {
		stop = append(stop, s.vocab.Stopwords)
	}
	if s.exclusions != nil {
		excluded, err := s.exclusions.Set(ctx)
		if err != nil {
			return nil, err
		}
		stop = append(stop, excluded)
	}
	return stop, nil
}

// fanOut runs fetch for every id with bounded concurrency. The first failure
// cancels the remaining calls. Output order follows ids.
func (s *Service) fanOut(
	ctx context.Context, view string, ids []int,
	fetch func(ctx context.Context, id int) (result.ClusterSummary, error),
) ([]result.ClusterSummary, error) {
	metrics.FanoutClusters.WithLabelValues(view).Observe(float64(len(ids)))

	out := make([]result.ClusterSummary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FanoutConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			summary, err := fetch(gctx, id)
			if err != nil {
				return fmt.Errorf("cluster %d: %w", id, err)
			}
			out[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// clusterTotals reads per-cluster document counts from a clusterNum facet.
func clusterTotals(facet []string) map[int]int {
	totals := make(map[int]int)
	for _, fc := range result.FormatFacets(facet) {
		id, err := strconv.Atoi(fc.Value)
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(fc.Count)
		if err != nil {
			continue
		}
		totals[id] = n
	}
	return totals
}

// byCluster groups documents by cluster number in first-seen order. Hits is
// the cluster's total from totals when known, else the documents seen here.
func byCluster(docs []result.Document, totals map[int]int) []result.ClusterSummary {
	index := make(map[int]int)
	var out []result.ClusterSummary
	for _, d := range docs {
		i, ok := index[d.ClusterNum]
		if !ok {
			i = len(out)
			index[d.ClusterNum] = i
			out = append(out, result.ClusterSummary{ClusterID: d.ClusterNum})
		}
		out[i].Hits++
		out[i].Documents = append(out[i].Documents, d)
	}
	for i := range out {
		if n, ok := totals[out[i].ClusterID]; ok && n > out[i].Hits {
			out[i].Hits = n
		}
	}
	return out
}
