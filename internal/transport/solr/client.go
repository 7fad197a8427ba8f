package solr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/clustersearch/internal/db"
	logpkg "github.com/kailas-cloud/clustersearch/internal/logger"
	"github.com/kailas-cloud/clustersearch/internal/metrics"
)

// Compile-time check: Client implements db.Searcher.
var _ db.Searcher = (*Client)(nil)

// maxErrorBody bounds how much of an error response is read for diagnostics.
const maxErrorBody = 4 << 10

// Config holds Solr connection settings.
type Config struct {
	BaseURL        string // e.g. http://localhost:8983/solr
	PingCollection string
	Timeout        time.Duration
	HTTPClient     *http.Client // optional; overrides Timeout
}

// Client issues select requests against Solr cores over HTTP.
type Client struct {
	baseURL        string
	pingCollection string
	http           *http.Client
}

// NewClient creates a Solr client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{baseURL: base, pingCollection: cfg.PingCollection, http: hc}, nil
}

// Search performs one select round trip. No retries.
func (c *Client) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	values := q.Params.Values()
	values.Set("q", q.Term)
	values.Set("wt", "json")

	endpoint := c.baseURL + "/" + url.PathEscape(q.Collection) + "/select?" + values.Encode()

	start := time.Now()
	var resp selectResponse
	err := c.get(ctx, endpoint, &resp)
	elapsed := time.Since(start)

	if err != nil {
		recordError(q.Collection, err)
		return nil, &db.Error{Op: db.OpSelect, Collection: q.Collection, Err: err}
	}

	metrics.BackendRequestsTotal.WithLabelValues(q.Collection, "success").Inc()
	metrics.BackendRequestDuration.WithLabelValues(q.Collection).Observe(elapsed.Seconds())

	sr := resp.toResult()
	logpkg.FromContext(ctx).Debug("backend query",
		zap.String("collection", q.Collection),
		zap.String("q", q.Term),
		zap.String("fq", q.Params.Get("fq")),
		zap.Int("hits", sr.NumFound),
		zap.Duration("latency", elapsed),
	)
	return sr, nil
}

// Ping checks the ping handler of the configured collection.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := c.baseURL + "/" + url.PathEscape(c.pingCollection) + "/admin/ping?wt=json"

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return &db.Error{Op: db.OpPing, Collection: c.pingCollection, Err: err}
	}
	if !strings.EqualFold(resp.Status, "OK") {
		return &db.Error{
			Op: db.OpPing, Collection: c.pingCollection,
			Err: fmt.Errorf("%w: status %q", db.ErrUnavailable, resp.Status),
		}
	}
	return nil
}

// get issues a GET and decodes the JSON body into dst, classifying failures
// as db.ErrUnavailable or db.ErrBadQuery.
func (c *Client) get(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", db.ErrBadQuery, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", db.ErrUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		msg := errorMessage(res.Body)
		if res.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: http %d: %s", db.ErrUnavailable, res.StatusCode, msg)
		}
		return fmt.Errorf("%w: http %d: %s", db.ErrBadQuery, res.StatusCode, msg)
	}

	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode response: %w", db.ErrBadQuery, err)
	}
	return nil
}

// errorMessage extracts error.msg from a Solr error body, falling back to the raw text.
func errorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	var parsed struct {
		Error struct {
			Msg string `json:"msg"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Msg != "" {
		return parsed.Error.Msg
	}
	return strings.TrimSpace(string(raw))
}

func recordError(collection string, err error) {
	errType := "bad_query"
	if errors.Is(err, db.ErrUnavailable) {
		errType = "unavailable"
	}
	metrics.BackendRequestsTotal.WithLabelValues(collection, "error").Inc()
	metrics.BackendErrorsTotal.WithLabelValues(collection, errType).Inc()
}
