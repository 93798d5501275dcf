package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
	"github.com/kirillkom/arxiv-simplifier/internal/core/ports"
)

// RecordMetrics is the slice of worker instrumentation the recorder needs.
type RecordMetrics interface {
	StartRecord()
	FinishRecord(service string, duration time.Duration, err error)
	ObserveEventLag(service string, lag time.Duration)
}

type RecordSummaryUseCase struct {
	store   ports.SummaryStore
	metrics RecordMetrics
	service string
	logger  *slog.Logger

	now func() time.Time
}

func NewRecordSummaryUseCase(store ports.SummaryStore, metrics RecordMetrics, service string, logger *slog.Logger) *RecordSummaryUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordSummaryUseCase{
		store:   store,
		metrics: metrics,
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

func (uc *RecordSummaryUseCase) Record(ctx context.Context, event domain.SummaryCompleted) error {
	if event.RequestID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record summary", errors.New("event has no request id"))
	}

	if uc.metrics != nil {
		uc.metrics.ObserveEventLag(uc.service, uc.now().UTC().Sub(event.CompletedAt))
		uc.metrics.StartRecord()
	}

	start := uc.now()
	err := uc.store.Insert(ctx, event)
	if uc.metrics != nil {
		uc.metrics.FinishRecord(uc.service, uc.now().Sub(start), err)
	}
	if err != nil {
		return fmt.Errorf("persist summary record: %w", err)
	}

	uc.logger.Info("summary recorded",
		"request_id", event.RequestID,
		"arxiv_id", event.ArxivID,
		"style", event.ExplanationStyle,
	)
	return nil
}
