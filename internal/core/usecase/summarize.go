package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
	"github.com/kirillkom/arxiv-simplifier/internal/core/ports"
	"github.com/kirillkom/arxiv-simplifier/internal/core/prompts"
	"github.com/kirillkom/arxiv-simplifier/internal/styling"
)

// truncationNotice is appended whenever extracted text is cut down before AI
// submission. The literal is part of the external contract.
const truncationNotice = "\n\n[Text truncated due to length]"

// publishedDateLayout is the date format of paper_info.published.
const publishedDateLayout = "2006-01-02"

// SummarizeLimits carries every size and feature bound the pipeline enforces.
type SummarizeLimits struct {
	MaxURLLength   int
	MaxPDFSize     int64
	MaxPages       int
	TextLimit      int
	MinTextLength  int
	MaxTextLength  int
	MaxFigures     int
	FiguresEnabled bool
	EventsEnabled  bool
}

// PipelineMetrics is the optional instrumentation surface of the pipeline.
// The HTTP server metrics satisfy it.
type PipelineMetrics interface {
	RecordExtractedChars(service string, chars int)
	RecordTruncation(service string)
	RecordUpstreamCall(service, upstream string, err error)
}

// SummarizeUseCase runs the fetch, download, extract, generate and validate
// pipeline for one request. Executions for distinct requests run concurrently;
// within one request the steps are strictly sequential.
type SummarizeUseCase struct {
	fetcher    ports.PaperFetcher
	downloader ports.PDFDownloader
	extractor  ports.TextExtractor
	generator  ports.SummaryGenerator
	publisher  ports.EventPublisher
	catalog    *prompts.Catalog
	limits     SummarizeLimits
	logger     *slog.Logger

	metrics        PipelineMetrics
	metricsService string

	// Filesystem and clock seams. Production wiring uses the os/time
	// defaults; tests swap them to observe cleanup behavior.
	removeFile func(path string) error
	fileSize   func(path string) (int64, error)
	now        func() time.Time
}

func NewSummarizeUseCase(
	fetcher ports.PaperFetcher,
	downloader ports.PDFDownloader,
	extractor ports.TextExtractor,
	generator ports.SummaryGenerator,
	publisher ports.EventPublisher,
	catalog *prompts.Catalog,
	limits SummarizeLimits,
	logger *slog.Logger,
) *SummarizeUseCase {
	return &SummarizeUseCase{
		fetcher:    fetcher,
		downloader: downloader,
		extractor:  extractor,
		generator:  generator,
		publisher:  publisher,
		catalog:    catalog,
		limits:     limits,
		logger:     logger,
		removeFile: os.Remove,
		fileSize: func(path string) (int64, error) {
			info, err := os.Stat(path)
			if err != nil {
				return 0, err
			}
			return info.Size(), nil
		},
		now: time.Now,
	}
}

// WithMetrics attaches pipeline instrumentation. Without it the pipeline runs
// unmetered.
func (uc *SummarizeUseCase) WithMetrics(m PipelineMetrics, service string) *SummarizeUseCase {
	uc.metrics = m
	uc.metricsService = service
	return uc
}

// Summarize executes the full pipeline once. No step is retried here; the
// caller owns any retry policy.
func (uc *SummarizeUseCase) Summarize(ctx context.Context, req domain.SummarizeRequest) (*domain.SummarizeResponse, error) {
	// URL checks come before the style check: a request that is wrong on
	// both counts reports the bad URL.
	validatedURL, arxivID, err := uc.validateURL(req.URL)
	if err != nil {
		return nil, err
	}

	style, err := uc.resolveStyle(req.ExplanationStyle)
	if err != nil {
		return nil, err
	}

	paper, err := uc.fetchPaper(ctx, arxivID)
	if err != nil {
		return nil, err
	}

	pdfPath, err := uc.downloadPDF(ctx, paper)
	if err != nil {
		return nil, err
	}
	// From here the temp file is ours. One release on every exit path.
	cleanup := uc.cleanupOnce(pdfPath)
	defer cleanup()

	if err := uc.enforcePDFSize(pdfPath, cleanup); err != nil {
		return nil, err
	}

	text, err := uc.extractText(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	figures := uc.extractFigures(ctx, pdfPath)

	text, truncated := uc.truncateForAI(text)

	raw, err := uc.generateSummary(ctx, text, style)
	if err != nil {
		return nil, err
	}

	summary, err := domain.ParseSummaryResult(raw)
	if err != nil {
		return nil, err
	}

	if uc.catalog.NeedsVerse(style) {
		styling.FormatSummary(summary)
	}

	response := &domain.SummarizeResponse{
		Summary:          summary,
		PaperInfo:        paperInfo(paper, arxivID, validatedURL),
		ExplanationStyle: style,
		Figures:          figures,
	}

	uc.publishCompleted(ctx, arxivID, paper.Title, style, summary.Gist, truncated)

	return response, nil
}

// resolveStyle applies the strict allow-list to the requested style. An empty
// request field means the default; anything else must be a catalog member.
func (uc *SummarizeUseCase) resolveStyle(requested string) (string, error) {
	if requested == "" {
		return prompts.DefaultStyle, nil
	}
	if !uc.catalog.IsAllowed(requested) {
		return "", domain.WrapError(domain.ErrInvalidInput, "validate style", fmt.Errorf("unknown explanation style %q", requested))
	}
	return requested, nil
}

func (uc *SummarizeUseCase) validateURL(raw string) (string, string, error) {
	validatedURL, violation, err := domain.ValidateArxivURL(raw, uc.limits.MaxURLLength)
	if err != nil {
		uc.logger.Warn("url rejected", "violation", string(violation))
		return "", "", err
	}
	arxivID, err := domain.ExtractArxivID(validatedURL)
	if err != nil {
		return "", "", err
	}
	return validatedURL, arxivID, nil
}

func (uc *SummarizeUseCase) fetchPaper(ctx context.Context, arxivID string) (*domain.Paper, error) {
	paper, err := uc.fetcher.Search(ctx, arxivID)
	uc.recordUpstream("arxiv", err)
	if err != nil {
		if domain.IsKind(err, domain.ErrPaperNotFound) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrUpstreamFetch, "search arxiv", err)
	}
	if paper == nil {
		return nil, domain.WrapError(domain.ErrPaperNotFound, "search arxiv", fmt.Errorf("no entry for %s", arxivID))
	}
	return paper, nil
}

func (uc *SummarizeUseCase) downloadPDF(ctx context.Context, paper *domain.Paper) (string, error) {
	path, err := uc.downloader.Download(ctx, paper)
	uc.recordUpstream("arxiv", err)
	if err != nil {
		return "", domain.WrapError(domain.ErrUpstreamFetch, "download pdf", err)
	}
	if path == "" {
		return "", domain.WrapError(domain.ErrUpstreamFetch, "download pdf", errors.New("downloader returned empty path"))
	}
	return path, nil
}

// cleanupOnce returns a release function for the downloaded file that is safe
// to call from several exit paths but deletes at most once. Deletion failures
// are logged, never escalated.
func (uc *SummarizeUseCase) cleanupOnce(path string) func() {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		if err := uc.removeFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			uc.logger.Error("temp pdf cleanup failed", "error", err)
		}
	}
}

// enforcePDFSize rejects oversized downloads before extraction. The file is
// released immediately rather than held until the deferred cleanup.
func (uc *SummarizeUseCase) enforcePDFSize(path string, cleanup func()) error {
	size, err := uc.fileSize(path)
	if err != nil {
		return fmt.Errorf("stat downloaded pdf: %w", err)
	}
	if uc.limits.MaxPDFSize > 0 && size > uc.limits.MaxPDFSize {
		cleanup()
		return domain.WrapError(domain.ErrPayloadTooLarge, "check pdf size", fmt.Errorf("pdf is %d bytes, limit %d", size, uc.limits.MaxPDFSize))
	}
	return nil
}

func (uc *SummarizeUseCase) extractText(ctx context.Context, path string) (string, error) {
	text, err := uc.extractor.ExtractText(ctx, path, uc.limits.MaxPages, uc.limits.TextLimit)
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	if len(text) < uc.limits.MinTextLength {
		return "", domain.WrapError(domain.ErrInsufficientContent, "extract pdf text", fmt.Errorf("only %d characters extracted", len(text)))
	}
	if uc.metrics != nil {
		uc.metrics.RecordExtractedChars(uc.metricsService, len(text))
	}
	return text, nil
}

// extractFigures is best effort and disabled by default. Failures degrade to
// the empty list; the response field is always a non-nil slice.
func (uc *SummarizeUseCase) extractFigures(ctx context.Context, path string) []domain.Figure {
	if !uc.limits.FiguresEnabled {
		return []domain.Figure{}
	}
	figures, err := uc.extractor.ExtractImages(ctx, path, uc.limits.MaxFigures)
	if err != nil {
		uc.logger.Warn("figure extraction failed", "error", err)
		return []domain.Figure{}
	}
	if figures == nil {
		figures = []domain.Figure{}
	}
	return figures
}

func (uc *SummarizeUseCase) truncateForAI(text string) (string, bool) {
	if uc.limits.MaxTextLength <= 0 || len(text) <= uc.limits.MaxTextLength {
		return text, false
	}
	if uc.metrics != nil {
		uc.metrics.RecordTruncation(uc.metricsService)
	}
	return text[:uc.limits.MaxTextLength] + truncationNotice, true
}

func (uc *SummarizeUseCase) generateSummary(ctx context.Context, text, style string) (string, error) {
	raw, err := uc.generator.Generate(ctx, text, uc.catalog.SystemPrompt(style), prompts.PaperSummarySchema)
	uc.recordUpstream("gemini", err)
	if err != nil {
		if domain.IsKind(err, domain.ErrEmptyUpstreamResponse) {
			return "", err
		}
		return "", domain.WrapError(domain.ErrUpstreamAI, "generate summary", err)
	}
	if raw == "" {
		return "", domain.WrapError(domain.ErrEmptyUpstreamResponse, "generate summary", errors.New("model returned empty text"))
	}
	return raw, nil
}

// publishCompleted emits the history event. Publish failures never affect the
// response.
func (uc *SummarizeUseCase) publishCompleted(ctx context.Context, arxivID, title, style, gist string, truncated bool) {
	if !uc.limits.EventsEnabled || uc.publisher == nil {
		return
	}
	event := domain.SummaryCompleted{
		RequestID:        uuid.NewString(),
		ArxivID:          arxivID,
		Title:            title,
		ExplanationStyle: style,
		Gist:             gist,
		Truncated:        truncated,
		CompletedAt:      uc.now().UTC(),
	}
	if err := uc.publisher.PublishSummaryCompleted(ctx, event); err != nil {
		uc.logger.Warn("summary event publish failed", "arxiv_id", arxivID, "error", err)
	}
}

func (uc *SummarizeUseCase) recordUpstream(upstream string, err error) {
	if uc.metrics != nil {
		uc.metrics.RecordUpstreamCall(uc.metricsService, upstream, err)
	}
}

func paperInfo(paper *domain.Paper, arxivID, url string) domain.PaperInfo {
	info := domain.PaperInfo{
		Title:   paper.Title,
		Authors: paper.Authors,
		ArxivID: arxivID,
		URL:     url,
	}
	if paper.Published != nil {
		formatted := paper.Published.Format(publishedDateLayout)
		info.Published = &formatted
	}
	return info
}
