// Package bootstrap wires configuration into running components. The API and
// the worker share infrastructure but have disjoint dependency sets, so each
// gets its own constructor.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpadapter "github.com/kirillkom/arxiv-simplifier/internal/adapters/http"
	"github.com/kirillkom/arxiv-simplifier/internal/config"
	"github.com/kirillkom/arxiv-simplifier/internal/core/ports"
	"github.com/kirillkom/arxiv-simplifier/internal/core/prompts"
	"github.com/kirillkom/arxiv-simplifier/internal/core/usecase"
	"github.com/kirillkom/arxiv-simplifier/internal/infrastructure/arxiv"
	"github.com/kirillkom/arxiv-simplifier/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/arxiv-simplifier/internal/infrastructure/pdfextract"
	"github.com/kirillkom/arxiv-simplifier/internal/infrastructure/queue/nats"
	"github.com/kirillkom/arxiv-simplifier/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/arxiv-simplifier/internal/infrastructure/resilience"
	"github.com/kirillkom/arxiv-simplifier/internal/observability/logging"
	"github.com/kirillkom/arxiv-simplifier/internal/observability/metrics"
	"github.com/kirillkom/arxiv-simplifier/internal/ratelimit"
)

const (
	ServiceAPI    = "arxiv-simplifier-api"
	ServiceWorker = "arxiv-simplifier-worker"
	Version       = "1.0.0"
)

type API struct {
	Config  config.Config
	Logger  *slog.Logger
	Handler http.Handler

	closeFn func()
}

func NewAPI(_ context.Context, cfg config.Config) (*API, error) {
	logger := logging.NewJSONLogger(ServiceAPI, cfg.LogLevel)
	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	arxivClient := arxiv.New(
		cfg.ArxivAPIURL,
		time.Duration(cfg.ArxivRequestIntervalSeconds)*time.Second,
		executor,
	)
	geminiClient := gemini.New(cfg.GeminiURL, cfg.GeminiModel, cfg.GeminiAPIKey, executor)
	extractor := pdfextract.New()

	var publisher ports.EventPublisher
	var queue *nats.Queue
	if cfg.EventsEnabled {
		var err error
		queue, err = nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		publisher = queue
	}

	catalog, err := prompts.Load()
	if err != nil {
		return nil, fmt.Errorf("load prompt catalog: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(ServiceAPI)
	summarizeUC := usecase.NewSummarizeUseCase(
		arxivClient,
		arxivClient,
		extractor,
		geminiClient,
		publisher,
		catalog,
		usecase.SummarizeLimits{
			MaxURLLength:   cfg.MaxURLLength,
			MaxPDFSize:     cfg.MaxPDFSize,
			MaxPages:       cfg.MaxPages,
			TextLimit:      cfg.TextLimit,
			MinTextLength:  cfg.MinTextLength,
			MaxTextLength:  cfg.MaxTextLength,
			MaxFigures:     cfg.MaxFigures,
			FiguresEnabled: cfg.FiguresEnabled,
			EventsEnabled:  cfg.EventsEnabled,
		},
		logger,
	).WithMetrics(httpMetrics, ServiceAPI)

	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
	router := httpadapter.NewRouter(
		summarizeUC,
		ratelimit.NewLimiter(cfg.RateLimitRequests, window),
		ratelimit.NewLimiter(cfg.HealthRateLimitRequests, window),
		httpMetrics,
		httpadapter.Options{
			Service:        ServiceAPI,
			Version:        Version,
			Production:     cfg.IsProduction(),
			MaxRequestSize: cfg.MaxRequestSize,
			AllowedOrigins: cfg.AllowedOrigins,
			APIKeyRequired: cfg.APIKeyRequired,
			ValidAPIKeys:   cfg.ValidAPIKeys,
			Styles:         catalog.Styles(),
		},
	)

	return &API{
		Config:  cfg,
		Logger:  logger,
		Handler: router.Handler(),
		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
		},
	}, nil
}

func (a *API) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

type Worker struct {
	Config   config.Config
	Logger   *slog.Logger
	Queue    ports.EventSubscriber
	RecordUC ports.SummaryRecorder
	Metrics  *metrics.WorkerMetrics

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	logger := logging.NewJSONLogger(ServiceWorker, cfg.LogLevel)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewSummaryRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Logger: logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	workerMetrics := metrics.NewWorkerMetrics(ServiceWorker)
	recordUC := usecase.NewRecordSummaryUseCase(repo, workerMetrics, ServiceWorker, logger)

	return &Worker{
		Config:   cfg,
		Logger:   logger,
		Queue:    queue,
		RecordUC: recordUC,
		Metrics:  workerMetrics,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
