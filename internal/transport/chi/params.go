package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/clustersearch/internal/domain"
)

// Request parameter names.
const (
	paramSearchTerm = "search_term"
	paramPageNum    = "page_num"
	paramClusterID  = "cluster_id"
	paramKeyword    = "keyword"
)

// searchParams are the query-string inputs shared by the search pages.
type searchParams struct {
	SearchTerm *string
	PageNum    *int
}

// Term returns the search term, "" when absent.
func (p searchParams) Term() string {
	if p.SearchTerm == nil {
		return ""
	}
	return *p.SearchTerm
}

// Page returns the page number, 0 when absent.
func (p searchParams) Page() int {
	if p.PageNum == nil {
		return 0
	}
	return *p.PageNum
}

// bindSearchParams reads search_term and page_num. Both are optional; an
// empty page_num counts as absent, a malformed one is rejected.
func bindSearchParams(r *http.Request) (searchParams, error) {
	var params searchParams
	q := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, paramSearchTerm, q, &params.SearchTerm); err != nil {
		return params, fmt.Errorf("%w: invalid format for parameter %s: %w", domain.ErrInvalidRequest, paramSearchTerm, err)
	}

	if q.Get(paramPageNum) == "" {
		q.Del(paramPageNum)
	}
	if err := runtime.BindQueryParameter("form", true, false, paramPageNum, q, &params.PageNum); err != nil {
		return params, fmt.Errorf("%w: invalid format for parameter %s: %w", domain.ErrInvalidRequest, paramPageNum, err)
	}
	if params.PageNum != nil && *params.PageNum < 0 {
		return params, fmt.Errorf("%w: %s must be non-negative", domain.ErrInvalidRequest, paramPageNum)
	}

	return params, nil
}

// bindClusterID reads the cluster_id path parameter.
func bindClusterID(r *http.Request) (int, error) {
	var id int
	err := runtime.BindStyledParameterWithOptions("simple", paramClusterID, chi.URLParam(r, paramClusterID), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return 0, fmt.Errorf("%w: invalid format for parameter %s: %w", domain.ErrInvalidRequest, paramClusterID, err)
	}
	if id < 0 {
		return 0, fmt.Errorf("%w: %s must be non-negative", domain.ErrInvalidRequest, paramClusterID)
	}
	return id, nil
}
