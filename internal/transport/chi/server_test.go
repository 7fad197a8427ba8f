package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/clustersearch/internal/domain"
	"github.com/kailas-cloud/clustersearch/internal/domain/query"
	"github.com/kailas-cloud/clustersearch/internal/domain/result"
	"github.com/kailas-cloud/clustersearch/internal/domain/vocabulary"
	exclusionuc "github.com/kailas-cloud/clustersearch/internal/usecase/exclusion"
	healthuc "github.com/kailas-cloud/clustersearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/clustersearch/internal/usecase/search"
)

// --- Mocks ---

type mockSearchRepo struct {
	mu      sync.Mutex
	params  []query.Params
	queryFn func(ctx context.Context, collection, term string, params query.Params) (*result.Set, error)
}

func (m *mockSearchRepo) Query(ctx context.Context, collection, term string, params query.Params) (*result.Set, error) {
	m.mu.Lock()
	m.params = append(m.params, params)
	m.mu.Unlock()
	if m.queryFn != nil {
		return m.queryFn(ctx, collection, term, params)
	}
	return &result.Set{}, nil
}

type mockExclusionRepo struct {
	added []string
}

func (m *mockExclusionRepo) Add(_ context.Context, keyword string) (bool, error) {
	m.added = append(m.added, keyword)
	return true, nil
}

func (m *mockExclusionRepo) List(_ context.Context) ([]string, error) { return m.added, nil }

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Helpers ---

type testEnv struct {
	repo    *mockSearchRepo
	excl    *mockExclusionRepo
	pinger  *mockPinger
	keys    []string
	handler http.Handler
}

func newTestEnv(t *testing.T, configure func(*testEnv)) *testEnv {
	t.Helper()
	env := &testEnv{repo: &mockSearchRepo{}, pinger: &mockPinger{}}
	if configure != nil {
		configure(env)
	}

	var exclRepo exclusionuc.Repository
	if env.excl != nil {
		exclRepo = env.excl
	}
	exclusions := exclusionuc.New(exclRepo)
	search := searchuc.New(env.repo, exclusions, vocabulary.Vocabulary{}, searchuc.DefaultConfig())
	health := healthuc.New(env.pinger, nil)

	srv, err := NewServer(search, exclusions, health, zap.NewNop(), Options{AdminKeys: env.keys})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	r := chi.NewRouter()
	srv.Routes(r)
	env.handler = r
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) get(target string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, target, http.NoBody))
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("body does not contain %q:\n%s", want, body)
	}
}

// --- Pages ---

func TestIndex(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.get("/")
	assertStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	assertContains(t, rr.Body.String(), "Search clustered abstracts")
}

func TestGroupedResults_Wildcard(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.repo.queryFn = func(_ context.Context, _ string, term string, _ query.Params) (*result.Set, error) {
			if term != query.MatchAll {
				t.Errorf("term = %q, want wildcard", term)
			}
			return &result.Set{
				Facets: map[string][]string{query.ClusterField: {"3", "5"}},
				Grouped: map[string]result.Grouping{query.ClusterField: {Matches: 5, Groups: []result.Group{
					{Value: "3", ClusterID: 3, NumFound: 5, Documents: []result.Document{{ID: "99", Title: "[Effect of insulin]"}}},
				}}},
			}, nil
		}
	})

	rr := env.get("/search/grouped?search_term=")
	assertStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	assertContains(t, body, "Effect of insulin")
	assertContains(t, body, DefaultPermalinkBase+"99")
	assertContains(t, body, "5 matching documents")
	if strings.Contains(body, "[Effect") {
		t.Error("brackets must be stripped from titles")
	}
	if len(env.repo.params) != 1 {
		t.Errorf("round trips = %d, want 1", len(env.repo.params))
	}
}

func TestGroupedResults_UnclusteredGroupHasNoLink(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.repo.queryFn = func(context.Context, string, string, query.Params) (*result.Set, error) {
			return &result.Set{
				Grouped: map[string]result.Grouping{query.ClusterField: {Matches: 3, Groups: []result.Group{
					{Value: "4", ClusterID: 4, NumFound: 2, Documents: []result.Document{{ID: "1", Title: "clustered"}}},
					{Value: "", ClusterID: -1, NumFound: 1, Documents: []result.Document{{ID: "2", Title: "stray"}}},
				}}},
			}, nil
		}
	})

	rr := env.get("/search/grouped")
	assertStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	assertContains(t, body, `href="/search/cluster/4?`)
	assertContains(t, body, "Unclustered")
	assertContains(t, body, "stray")
	if strings.Contains(body, `href="/search/cluster/?`) || strings.Contains(body, "/search/cluster/-1") {
		t.Errorf("unclustered group must not link to a cluster page:\n%s", body)
	}
}

func TestClusterDetail_Pagination(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.repo.queryFn = func(context.Context, string, string, query.Params) (*result.Set, error) {
			return &result.Set{Hits: 40, Documents: []result.Document{{ID: "1", Title: "t"}}}, nil
		}
	})

	rr := env.get("/search/cluster/7?search_term=insulin&page_num=2")
	assertStatus(t, rr, http.StatusOK)

	p := env.repo.params[0]
	if p.Get(query.Start) != "20" || p.Get(query.FilterQuery) != "clusterNum:7" {
		t.Errorf("params = %v", p)
	}
	body := rr.Body.String()
	assertContains(t, body, "page_num=1")
	assertContains(t, body, "page_num=3")
}

func TestClusterDetail_DefaultsPageZero(t *testing.T) {
	env := newTestEnv(t, nil)
	assertStatus(t, env.get("/search/cluster/7?page_num="), http.StatusOK)
	if got := env.repo.params[0].Get(query.Start); got != "0" {
		t.Errorf("start = %q, want 0", got)
	}
}

func TestMalformedParams_400(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, target := range []string{
		"/search/cluster/abc",
		"/search/cluster/7?page_num=two",
		"/search/cluster/7?page_num=-1",
		"/search/cluster/7?page_num=922337203685477581",
		"/search?page_num=x",
	} {
		rr := env.get(target)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rr.Code)
		}
	}
	if len(env.repo.params) != 0 {
		t.Error("backend must not be queried for malformed input")
	}
}

func TestBackendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unavailable", domain.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{"bad query", domain.ErrBackendQuery, http.StatusBadRequest},
		{"unclassified", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, func(e *testEnv) {
				e.repo.queryFn = func(context.Context, string, string, query.Params) (*result.Set, error) {
					return nil, tc.err
				}
			})
			rr := env.get("/search/grouped")
			assertStatus(t, rr, tc.want)
			if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") {
				t.Error("errors render as an HTML page")
			}
			if strings.Contains(rr.Body.String(), "deadline") {
				t.Error("internal error details must not leak")
			}
		})
	}
}

func TestKeywordResults_DropsEmptyClusters(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.repo.queryFn = func(_ context.Context, collection, _ string, p query.Params) (*result.Set, error) {
			if collection == searchuc.DefaultKeywordCollection {
				return &result.Set{Documents: []result.Document{
					{ClusterNum: 11, Fields: map[string]any{"keywords": "insulin, glucose"}},
					{ClusterNum: 12, Fields: map[string]any{"keywords": "kinase"}},
				}}, nil
			}
			if p.Get(query.FilterQuery) == "clusterNum:12" {
				return &result.Set{}, nil
			}
			return &result.Set{Hits: 4}, nil
		}
	})

	rr := env.get("/search?search_term=insulin")
	assertStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	assertContains(t, body, "Cluster 11")
	assertContains(t, body, "glucose, insulin")
	if strings.Contains(body, "Cluster 12") {
		t.Error("zero-hit cluster must be dropped")
	}
}

func TestHighlightedResults_EscapesSnippets(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) {
		e.repo.queryFn = func(_ context.Context, collection, _ string, _ query.Params) (*result.Set, error) {
			if collection == searchuc.DefaultKeywordCollection {
				return &result.Set{Documents: []result.Document{{ClusterNum: 2}}}, nil
			}
			return &result.Set{
				Hits:      1,
				Documents: []result.Document{{ID: "5", ClusterNum: 2}},
				Highlighting: map[string]map[string][]string{
					"5": {searchuc.DefaultHighlightField: {"<em>insulin</em> <script>x</script>"}},
				},
			}, nil
		}
	})

	rr := env.get("/search/highlighted?search_term=insulin")
	assertStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	assertContains(t, body, "<em>insulin</em>")
	assertContains(t, body, "&lt;script&gt;")
	if strings.Contains(body, "<script>x") {
		t.Error("snippet markup other than <em> must be escaped")
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.get("/nope")
	assertStatus(t, rr, http.StatusNotFound)
	assertContains(t, rr.Body.String(), "page not found")
}

// --- Exclusions ---

func TestAddExclusion_EchoWhenDisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(postForm("/exclusions", url.Values{"keyword": {"Cell"}}))
	assertStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	assertContains(t, body, "cell")
	assertContains(t, body, "not persisted")
}

func TestAddExclusion_Persists(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) { e.excl = &mockExclusionRepo{} })
	rr := env.do(postForm("/exclusions", url.Values{"keyword": {"Cell"}}))
	assertStatus(t, rr, http.StatusOK)
	assertContains(t, rr.Body.String(), "was added to")
	if len(env.excl.added) != 1 || env.excl.added[0] != "cell" {
		t.Errorf("added = %v", env.excl.added)
	}

	list := env.get("/exclusions")
	assertStatus(t, list, http.StatusOK)
	assertContains(t, list.Body.String(), "<li>cell</li>")
}

func TestAddExclusion_EmptyKeyword(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(postForm("/exclusions", url.Values{"keyword": {"  "}}))
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestAddExclusion_RequiresAdminKey(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) { e.keys = []string{"secret"} })

	rr := env.do(postForm("/exclusions", url.Values{"keyword": {"cell"}}))
	assertStatus(t, rr, http.StatusUnauthorized)

	req := postForm("/exclusions", url.Values{"keyword": {"cell"}})
	req.Header.Set("Authorization", "Bearer secret")
	assertStatus(t, env.do(req), http.StatusOK)

	// search pages stay public
	assertStatus(t, env.get("/"), http.StatusOK)
}

func TestListExclusions_Disabled(t *testing.T) {
	env := newTestEnv(t, nil)
	assertStatus(t, env.get("/exclusions"), http.StatusNotFound)
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.get("/health")
	assertStatus(t, rr, http.StatusOK)

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Checks[healthuc.ComponentSearch] != "ok" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHealthCheck_BackendDown(t *testing.T) {
	env := newTestEnv(t, func(e *testEnv) { e.pinger.err = domain.ErrBackendUnavailable })
	rr := env.get("/health")
	assertStatus(t, rr, http.StatusServiceUnavailable)
	assertContains(t, rr.Body.String(), `"status":"error"`)
}
