package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/arxiv-simplifier/internal/bootstrap"
	"github.com/kirillkom/arxiv-simplifier/internal/config"
	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux(app),
	}
	go func() {
		app.Logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	app.Logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeSummaryCompleted(ctx, func(handlerCtx context.Context, event domain.SummaryCompleted) error {
		recordCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()
		return app.RecordUC.Record(recordCtx, event)
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func metricsMux(app *bootstrap.Worker) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	return mux
}
