package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/clustersearch/internal/domain"
	logpkg "github.com/kailas-cloud/clustersearch/internal/logger"
	exclusionuc "github.com/kailas-cloud/clustersearch/internal/usecase/exclusion"
	healthuc "github.com/kailas-cloud/clustersearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/clustersearch/internal/usecase/search"
	"github.com/kailas-cloud/clustersearch/internal/version"
)

// errorHandler tries to render a domain error. Returns true if handled.
type errorHandler func(err error) (status int, msg string, ok bool)

// Options configures presentation details.
type Options struct {
	PermalinkBase string
	// AdminKeys guard the exclusion endpoints. Empty disables auth.
	AdminKeys []string
}

// Server renders the search pages.
type Server struct {
	search        *searchuc.Service
	exclusions    *exclusionuc.Service
	health        *healthuc.Service
	pages         *pages
	adminKeys     []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTML front-end server.
func NewServer(
	search *searchuc.Service,
	exclusions *exclusionuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
	opts Options,
) (*Server, error) {
	if opts.PermalinkBase == "" {
		opts.PermalinkBase = DefaultPermalinkBase
	}
	p, err := loadPages(opts.PermalinkBase)
	if err != nil {
		return nil, err
	}

	s := &Server{
		search:     search,
		exclusions: exclusions,
		health:     health,
		pages:      p,
		adminKeys:  opts.AdminKeys,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest),
		sentinelHandler(domain.ErrBackendQuery, http.StatusBadRequest),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrExclusionsDisabled, http.StatusNotFound),
	}
	return s, nil
}

// Routes registers every page on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Index)
	r.Route("/search", func(r chi.Router) {
		r.Get("/", s.KeywordResults)
		r.Get("/grouped", s.GroupedResults)
		r.Get("/highlighted", s.HighlightedResults)
		r.Get("/cluster/{cluster_id}", s.ClusterDetail)
	})
	r.Route("/exclusions", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(s.adminKeys))
		r.Get("/", s.ListExclusions)
		r.Post("/", s.AddExclusion)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderStatus(w, r, http.StatusNotFound, "page not found")
	})
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, pageIndex, &pageData{})
}

// KeywordResults handles GET /search: matching clusters with their keywords.
func (s *Server) KeywordResults(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	page, err := s.search.Keyword(r.Context(), params.Term())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.render(w, r, pageKeyword, &pageData{Title: "Clusters", Term: params.Term(), Page: page})
}

// GroupedResults handles GET /search/grouped.
func (s *Server) GroupedResults(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	page, err := s.search.Grouped(r.Context(), params.Term())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.render(w, r, pageGrouped, &pageData{Title: "Grouped results", Term: params.Term(), Page: page})
}

// HighlightedResults handles GET /search/highlighted.
func (s *Server) HighlightedResults(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	page, err := s.search.Highlighted(r.Context(), params.Term())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.render(w, r, pageHighlighted, &pageData{Title: "Highlights", Term: params.Term(), Page: page})
}

// ClusterDetail handles GET /search/cluster/{cluster_id}.
func (s *Server) ClusterDetail(w http.ResponseWriter, r *http.Request) {
	clusterID, err := bindClusterID(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	params, err := bindSearchParams(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	page, err := s.search.Detail(r.Context(), params.Term(), clusterID, params.Page())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.render(w, r, pageDetail, &pageData{Title: "Cluster detail", Term: params.Term(), Page: page})
}

// AddExclusion handles POST /exclusions.
func (s *Server) AddExclusion(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.handleDomainError(w, r, errors.Join(domain.ErrInvalidRequest, err))
		return
	}

	out, err := s.exclusions.Add(r.Context(), r.PostForm.Get(paramKeyword))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logpkg.FromContext(r.Context()).Info("exclusion received",
		zap.String("keyword", out.Keyword),
		zap.Bool("persisted", out.Persisted),
		zap.Bool("added", out.Added),
	)
	s.render(w, r, pageExclusion, &pageData{Title: "Exclusion", Page: out})
}

// ListExclusions handles GET /exclusions.
func (s *Server) ListExclusions(w http.ResponseWriter, r *http.Request) {
	keywords, err := s.exclusions.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.render(w, r, pageExclusions, &pageData{Title: "Exclusions", Page: keywords})
}

// healthResponse is the JSON body of GET /health.
type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.String(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data *pageData) {
	data.Version = version.String()
	if err := s.pages.render(w, http.StatusOK, name, data); err != nil {
		s.logger.Error("render failed", zap.String("page", name), zap.Error(err))
		s.renderStatus(w, r, http.StatusInternalServerError, "internal error")
	}
}

// renderStatus writes the generic failure page.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	data := &pageData{
		Title:      http.StatusText(status),
		Version:    version.String(),
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    msg,
		RequestID:  chiMiddleware.GetReqID(r.Context()),
	}
	if err := s.pages.render(w, status, pageError, data); err != nil {
		s.logger.Error("render error page failed", zap.Error(err))
		http.Error(w, msg, status)
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrBackendQuery,
		domain.ErrBackendUnavailable,
		domain.ErrExclusionsDisabled,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int) errorHandler {
	return func(err error) (int, string, bool) {
		if !errors.Is(err, sentinel) {
			return 0, "", false
		}
		return status, safeDomainMessage(err), true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if status, msg, ok := h(err); ok {
			log.Warn("domain error", zap.Int("status", status), zap.Error(err))
			s.renderStatus(w, r, status, msg)
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	s.renderStatus(w, r, http.StatusInternalServerError, "internal error")
}
