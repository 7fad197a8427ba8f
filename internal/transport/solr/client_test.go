package solr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/kailas-cloud/clustersearch/internal/db"
	"github.com/kailas-cloud/clustersearch/internal/domain/query"
)

const groupedBody = `{
  "responseHeader": {"status": 0, "QTime": 3},
  "grouped": {
    "clusterNum": {
      "matches": 12,
      "groups": [
        {"groupValue": 4, "doclist": {"numFound": 2, "start": 0, "docs": [
          {"id": "100", "title": ["[Insulin] signalling"], "clusterNum": [4]}
        ]}},
        {"groupValue": 9, "doclist": {"numFound": 10, "start": 0, "docs": []}}
      ]
    }
  },
  "facet_counts": {"facet_fields": {"clusterNum": ["9", 10, "4", 2]}}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/solr/", PingCollection: "abstracts", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearch_RequestShape(t *testing.T) {
	var got url.Values
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"response": {"numFound": 0, "start": 0, "docs": []}}`))
	})

	params := query.Grouped("", 10, 7)
	_, err := c.Search(context.Background(), &db.Query{Collection: "abstracts", Term: "*:*", Params: params})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if path != "/solr/abstracts/select" {
		t.Errorf("path = %q", path)
	}
	if got.Get("q") != "*:*" || got.Get("wt") != "json" {
		t.Errorf("q/wt = %q/%q", got.Get("q"), got.Get("wt"))
	}
	if got.Get("group.field") != "clusterNum" || got.Get("facet") != "on" {
		t.Errorf("params = %v", got)
	}
	if _, ok := got["fq"]; ok {
		t.Error("empty fq must not be sent")
	}
}

func TestSearch_DecodesGroupedAndFacets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(groupedBody))
	})

	sr, err := c.Search(context.Background(), &db.Query{Collection: "abstracts", Term: "insulin", Params: query.Params{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sr.NumFound != 12 {
		t.Errorf("numFound = %d, want 12 (group matches)", sr.NumFound)
	}
	g := sr.Grouped["clusterNum"]
	if g.Matches != 12 || len(g.Groups) != 2 {
		t.Fatalf("grouped = %+v", g)
	}
	if g.Groups[1].NumFound != 10 {
		t.Errorf("group[1].numFound = %d", g.Groups[1].NumFound)
	}
	if len(g.Groups[0].Docs) != 1 || g.Groups[0].Docs[0]["id"] != "100" {
		t.Errorf("group[0].docs = %v", g.Groups[0].Docs)
	}
	if n := len(sr.FacetFields["clusterNum"]); n != 4 {
		t.Errorf("facet list length = %d, want 4", n)
	}
}

func TestSearch_DecodesHighlighting(t *testing.T) {
	body := `{"response": {"numFound": 1, "start": 0, "docs": [{"id": "7"}]},
	          "highlighting": {"7": {"abstract": ["<em>insulin</em> resistance"]}}}`
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	sr, err := c.Search(context.Background(), &db.Query{Collection: "abstracts", Term: "insulin", Params: query.Params{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sr.NumFound != 1 || len(sr.Docs) != 1 {
		t.Fatalf("result = %+v", sr)
	}
	if got := sr.Highlighting["7"]["abstract"]; len(got) != 1 {
		t.Errorf("snippets = %v", got)
	}
}

func TestSearch_BadQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"msg": "undefined field foo", "code": 400}}`))
	})

	_, err := c.Search(context.Background(), &db.Query{Collection: "abstracts", Term: "foo:bar", Params: query.Params{}})
	if !errors.Is(err, db.ErrBadQuery) {
		t.Fatalf("expected ErrBadQuery, got %v", err)
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpSelect || dbErr.Collection != "abstracts" {
		t.Errorf("expected db.Error with op/collection, got %#v", err)
	}
}

func TestSearch_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Search(context.Background(), &db.Query{Collection: "abstracts", Term: "x", Params: query.Params{}})
	if !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSearch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: base, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Search(context.Background(), &db.Query{Collection: "abstracts", Term: "x", Params: query.Params{}})
	if !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSearch_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	})

	_, err := c.Search(context.Background(), &db.Query{Collection: "abstracts", Term: "x", Params: query.Params{}})
	if !errors.Is(err, db.ErrBadQuery) {
		t.Fatalf("expected ErrBadQuery, got %v", err)
	}
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/solr/abstracts/admin/ping" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"status": "OK"}`))
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_NotOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "FAIL"}`))
	})
	err := c.Ping(context.Background())
	if !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
