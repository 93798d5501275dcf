package ports

import (
	"context"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
)

// PaperSummarizer is the inbound contract for the summarization pipeline.
// Rate limiting happens in front of this boundary, in the HTTP layer.
type PaperSummarizer interface {
	Summarize(ctx context.Context, req domain.SummarizeRequest) (*domain.SummarizeResponse, error)
}

// SummaryRecorder is the inbound contract for the history worker.
type SummaryRecorder interface {
	Record(ctx context.Context, event domain.SummaryCompleted) error
}
