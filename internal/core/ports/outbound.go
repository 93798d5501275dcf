package ports

import (
	"context"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
)

// PaperFetcher resolves an arXiv identifier to paper metadata.
type PaperFetcher interface {
	Search(ctx context.Context, arxivID string) (*domain.Paper, error)
}

// PDFDownloader fetches a paper's PDF to a local temporary file and returns
// its path. The caller owns the file from that point on.
type PDFDownloader interface {
	Download(ctx context.Context, paper *domain.Paper) (string, error)
}

// TextExtractor pulls bounded plain text out of a local PDF. ExtractImages is
// best effort; implementations may return an empty slice unconditionally.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string, maxPages, maxChars int) (string, error)
	ExtractImages(ctx context.Context, path string, maxCount int) ([]domain.Figure, error)
}

// SummaryGenerator invokes the AI backend with a system prompt and a response
// schema and returns the raw response text.
type SummaryGenerator interface {
	Generate(ctx context.Context, text, systemPrompt string, schema map[string]any) (string, error)
}

// EventPublisher emits pipeline-completion events.
type EventPublisher interface {
	PublishSummaryCompleted(ctx context.Context, event domain.SummaryCompleted) error
}

// EventSubscriber consumes pipeline-completion events.
type EventSubscriber interface {
	SubscribeSummaryCompleted(ctx context.Context, handler func(context.Context, domain.SummaryCompleted) error) error
}

// SummaryStore persists completed summaries for history.
type SummaryStore interface {
	Insert(ctx context.Context, event domain.SummaryCompleted) error
}
