package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/clustersearch/internal/config"
	dbRedis "github.com/kailas-cloud/clustersearch/internal/db/redis"
	"github.com/kailas-cloud/clustersearch/internal/domain/query"
	"github.com/kailas-cloud/clustersearch/internal/domain/vocabulary"
	logpkg "github.com/kailas-cloud/clustersearch/internal/logger"
	"github.com/kailas-cloud/clustersearch/internal/metrics"
	exclusionrepo "github.com/kailas-cloud/clustersearch/internal/repository/exclusion"
	searchrepo "github.com/kailas-cloud/clustersearch/internal/repository/search"
	chiTransport "github.com/kailas-cloud/clustersearch/internal/transport/chi"
	"github.com/kailas-cloud/clustersearch/internal/transport/solr"
	exclusionuc "github.com/kailas-cloud/clustersearch/internal/usecase/exclusion"
	healthuc "github.com/kailas-cloud/clustersearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/clustersearch/internal/usecase/search"
	"github.com/kailas-cloud/clustersearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting clustersearch web server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("solr_url", cfg.Search.SolrURL),
		zap.String("exclusions_driver", cfg.Exclusions.Driver),
	)

	// Register backend metrics explicitly (no init())
	metrics.RegisterBackendMetrics()

	// Vocabularies are read once and shared read-only
	vocab, err := vocabulary.Load(cfg.Vocabulary.StopwordsPath, cfg.Vocabulary.HeadingsPath)
	if err != nil {
		logger.Fatal("Failed to load vocabularies", zap.Error(err))
	}
	logger.Info("Vocabularies loaded",
		zap.Int("stopwords", vocab.Stopwords.Len()),
		zap.Int("subject_headings", vocab.Headings.Len()),
	)

	// Search backend (with transport metrics built-in)
	solrClient, err := solr.NewClient(solr.Config{
		BaseURL:        cfg.Search.SolrURL,
		PingCollection: cfg.Search.DocumentCollection,
		Timeout:        time.Duration(cfg.Search.TimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create search client", zap.Error(err))
	}

	ctx := context.Background()
	if err := solrClient.Ping(ctx); err != nil {
		// Pages render an error until Solr comes up; not fatal.
		logger.Warn("Search backend not reachable at startup", zap.Error(err))
	}

	// Optional exclusion store. A nil repository keeps POST /exclusions echo-only.
	var exclRepo exclusionuc.Repository
	var exclPinger healthuc.Pinger
	if cfg.Exclusions.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Exclusions.Addrs,
			Username: cfg.Exclusions.Username,
			Password: cfg.Exclusions.Password,
			DB:       cfg.Exclusions.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create exclusion store", zap.Error(err))
		}
		defer store.Close()

		timeout := time.Duration(cfg.Exclusions.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			logger.Fatal("Exclusion store not ready", zap.Error(err))
		}
		logger.Info("Connected to exclusion store", zap.Strings("addrs", cfg.Exclusions.Addrs))

		exclRepo = exclusionrepo.New(store, cfg.Exclusions.Key)
		exclPinger = store
	}

	// Use case services
	exclSvc := exclusionuc.New(exclRepo)
	searchSvc := searchuc.New(searchrepo.New(solrClient), exclSvc, *vocab, searchConfig(cfg))
	healthSvc := healthuc.New(solrClient, exclPinger)

	server, err := chiTransport.NewServer(searchSvc, exclSvc, healthSvc, logger, chiTransport.Options{
		PermalinkBase: cfg.HTTP.PermalinkBase,
		AdminKeys:     cfg.Auth.AdminKeys,
	})
	if err != nil {
		logger.Fatal("Failed to create HTTP server", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(htmlRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// searchConfig maps the search and vocabulary config sections onto the use case.
func searchConfig(cfg config.Config) searchuc.Config {
	s := cfg.Search
	return searchuc.Config{
		KeywordCollection:  s.KeywordCollection,
		DocumentCollection: s.DocumentCollection,
		KeywordField:       s.KeywordField,
		PageSize:           s.PageSize,
		GroupLimit:         s.GroupLimit,
		PreviewRows:        s.PreviewRows,
		MaxClusterRows:     s.MaxClusterRows,
		MaxClauses:         s.MaxClauses,
		KeywordCap:         s.KeywordCap,
		Highlight: query.HighlightOptions{
			Field:    s.Highlight.Field,
			Snippets: s.Highlight.Snippets,
			Method:   s.Highlight.Method,
			FragSize: s.Highlight.FragSize,
		},
		FanoutConcurrency: s.FanoutConcurrency,
		FilterStopwords:   cfg.Vocabulary.StopwordFiltering(),
	}
}

const panicPage = `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><title>Internal Server Error</title></head>
<body><h1>500 Internal Server Error</h1><p>internal error</p></body></html>
`

// htmlRecoverer is a recovery middleware that renders an error page instead of a plain text stacktrace.
func htmlRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity, as net/http does
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "text/html; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(panicPage))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("search_term", r.URL.Query().Get("search_term")),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
