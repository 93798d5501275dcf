package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
	"github.com/kirillkom/arxiv-simplifier/internal/core/prompts"
)

const validSummaryJSON = `{
	"gist": "A tiny model beats a big one.",
	"analogy": "Like a bicycle outrunning a truck in traffic.",
	"experimental_details": "They trained both models on the same corpus and timed them.",
	"key_findings": ["10x faster", "same accuracy"],
	"why_it_matters": "Cheaper research for everyone.",
	"key_terms": [{"term": "distillation", "definition": "Teaching a small model from a big one."}]
}`

type fetcherFake struct {
	paper  *domain.Paper
	err    error
	called bool
}

func (f *fetcherFake) Search(context.Context, string) (*domain.Paper, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return f.paper, nil
}

type downloaderFake struct {
	path string
	err  error
}

func (f *downloaderFake) Download(context.Context, *domain.Paper) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

type pdfExtractorFake struct {
	text       string
	textErr    error
	figures    []domain.Figure
	figuresErr error
}

func (f *pdfExtractorFake) ExtractText(context.Context, string, int, int) (string, error) {
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.text, nil
}

func (f *pdfExtractorFake) ExtractImages(context.Context, string, int) ([]domain.Figure, error) {
	if f.figuresErr != nil {
		return nil, f.figuresErr
	}
	return f.figures, nil
}

type generatorFake struct {
	raw         string
	err         error
	gotText     string
	gotPrompt   string
	gotSchema   map[string]any
	calledTimes int
}

func (f *generatorFake) Generate(_ context.Context, text, systemPrompt string, schema map[string]any) (string, error) {
	f.calledTimes++
	f.gotText = text
	f.gotPrompt = systemPrompt
	f.gotSchema = schema
	if f.err != nil {
		return "", f.err
	}
	return f.raw, nil
}

type publisherFake struct {
	events []domain.SummaryCompleted
	err    error
}

func (f *publisherFake) PublishSummaryCompleted(_ context.Context, event domain.SummaryCompleted) error {
	f.events = append(f.events, event)
	return f.err
}

type pipelineFixture struct {
	uc        *SummarizeUseCase
	fetcher   *fetcherFake
	extractor *pdfExtractorFake
	generator *generatorFake
	publisher *publisherFake
	removed   *[]string
}

func testLimits() SummarizeLimits {
	return SummarizeLimits{
		MaxURLLength:  2048,
		MaxPDFSize:    50 * 1024 * 1024,
		MaxPages:      100,
		TextLimit:     500000,
		MinTextLength: 500,
		MaxTextLength: 100000,
		MaxFigures:    5,
	}
}

func newPipeline(t *testing.T, limits SummarizeLimits) *pipelineFixture {
	t.Helper()
	catalog, err := prompts.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	published := time.Date(2023, 1, 30, 12, 0, 0, 0, time.UTC)
	fetcher := &fetcherFake{paper: &domain.Paper{
		Title:     "Attention Is Cheap",
		Authors:   []string{"A. Researcher", "B. Researcher"},
		Published: &published,
		EntryID:   "http://arxiv.org/abs/2301.12345v1",
		PDFURL:    "http://arxiv.org/pdf/2301.12345v1",
	}}
	extractor := &pdfExtractorFake{text: strings.Repeat("science ", 100)}
	generator := &generatorFake{raw: validSummaryJSON}
	publisher := &publisherFake{}
	removed := []string{}

	uc := NewSummarizeUseCase(
		fetcher,
		&downloaderFake{path: "/tmp/paper-2301.12345.pdf"},
		extractor,
		generator,
		publisher,
		catalog,
		limits,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	uc.removeFile = func(path string) error {
		removed = append(removed, path)
		return nil
	}
	uc.fileSize = func(string) (int64, error) { return 1024, nil }
	uc.now = func() time.Time { return time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC) }

	return &pipelineFixture{uc: uc, fetcher: fetcher, extractor: extractor, generator: generator, publisher: publisher, removed: &removed}
}

func validRequest() domain.SummarizeRequest {
	return domain.SummarizeRequest{URL: "https://arxiv.org/abs/2301.12345"}
}

func TestSummarizeHappyPath(t *testing.T) {
	fx := newPipeline(t, testLimits())

	resp, err := fx.uc.Summarize(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}

	if resp.Summary.Gist != "A tiny model beats a big one." {
		t.Errorf("unexpected gist %q", resp.Summary.Gist)
	}
	if resp.ExplanationStyle != prompts.DefaultStyle {
		t.Errorf("expected default style, got %q", resp.ExplanationStyle)
	}
	if resp.PaperInfo.ArxivID != "2301.12345" {
		t.Errorf("unexpected arxiv id %q", resp.PaperInfo.ArxivID)
	}
	if resp.PaperInfo.Published == nil || *resp.PaperInfo.Published != "2023-01-30" {
		t.Errorf("unexpected published date %v", resp.PaperInfo.Published)
	}
	if resp.Figures == nil || len(resp.Figures) != 0 {
		t.Errorf("expected empty non-nil figures, got %#v", resp.Figures)
	}
	if len(*fx.removed) != 1 {
		t.Errorf("expected exactly one temp-file deletion, got %d", len(*fx.removed))
	}
	if !strings.Contains(fx.generator.gotPrompt, "ResearchLikeIAmFive") {
		t.Errorf("system prompt not built from catalog: %q", fx.generator.gotPrompt)
	}
	if fx.generator.gotSchema == nil {
		t.Errorf("schema not passed to generator")
	}
}

func TestSummarizeRejectsUnknownStyleBeforeAnyIO(t *testing.T) {
	fx := newPipeline(t, testLimits())

	req := validRequest()
	req.ExplanationStyle = "interpretive-dance"
	_, err := fx.uc.Summarize(context.Background(), req)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if fx.fetcher.called {
		t.Errorf("fetcher called despite invalid style")
	}
}

func TestSummarizeRejectsURLBeforeAnyIO(t *testing.T) {
	fx := newPipeline(t, testLimits())

	for _, url := range []string{
		"https://evil.com/abs/2301.12345",
		"https://arxiv.org/abs/12345",
		"",
	} {
		req := domain.SummarizeRequest{URL: url}
		_, err := fx.uc.Summarize(context.Background(), req)
		if !domain.IsKind(err, domain.ErrInvalidURL) {
			t.Errorf("url %q: expected ErrInvalidURL, got %v", url, err)
		}
	}
	if fx.fetcher.called {
		t.Errorf("fetcher called despite invalid url")
	}
}

func TestSummarizeBadURLWinsOverBadStyle(t *testing.T) {
	fx := newPipeline(t, testLimits())

	req := domain.SummarizeRequest{
		URL:              "https://evil.com/abs/2301.12345",
		ExplanationStyle: "interpretive-dance",
	}
	_, err := fx.uc.Summarize(context.Background(), req)
	if !domain.IsKind(err, domain.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL for a request invalid on both counts, got %v", err)
	}
}

func TestSummarizePaperNotFoundPassesThrough(t *testing.T) {
	fx := newPipeline(t, testLimits())
	fx.fetcher.err = domain.WrapError(domain.ErrPaperNotFound, "search arxiv", errors.New("zero entries"))

	_, err := fx.uc.Summarize(context.Background(), validRequest())
	if !domain.IsKind(err, domain.ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}

func TestSummarizeFetchFailureBecomesUpstreamFetch(t *testing.T) {
	fx := newPipeline(t, testLimits())
	fx.fetcher.err = errors.New("connection reset")

	_, err := fx.uc.Summarize(context.Background(), validRequest())
	if !domain.IsKind(err, domain.ErrUpstreamFetch) {
		t.Fatalf("expected ErrUpstreamFetch, got %v", err)
	}
}

func TestSummarizeOversizedPDFDeletedImmediately(t *testing.T) {
	fx := newPipeline(t, testLimits())
	fx.uc.fileSize = func(string) (int64, error) { return testLimits().MaxPDFSize + 1, nil }

	_, err := fx.uc.Summarize(context.Background(), validRequest())
	if !domain.IsKind(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if len(*fx.removed) != 1 {
		t.Fatalf("expected exactly one deletion, got %d", len(*fx.removed))
	}
}

func TestSummarizeShortTextIsInsufficientContent(t *testing.T) {
	fx := newPipeline(t, testLimits())
	fx.extractor.text = "too short"

	_, err := fx.uc.Summarize(context.Background(), validRequest())
	if !domain.IsKind(err, domain.ErrInsufficientContent) {
		t.Fatalf("expected ErrInsufficientContent, got %v", err)
	}
}

func TestSummarizeTruncatesBeforeAISubmission(t *testing.T) {
	limits := testLimits()
	limits.MaxTextLength = 1000
	fx := newPipeline(t, limits)
	long := strings.Repeat("x", 1500)
	fx.extractor.text = long

	if _, err := fx.uc.Summarize(context.Background(), validRequest()); err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}

	want := long[:1000] + "\n\n[Text truncated due to length]"
	if fx.generator.gotText != want {
		t.Fatalf("submitted text mismatch: got %d chars, want %d", len(fx.generator.gotText), len(want))
	}
}

func TestSummarizeTempFileDeletedOnEveryFailurePath(t *testing.T) {
	tests := []struct {
		name  string
		mold  func(fx *pipelineFixture)
		kind  error
	}{
		{
			name: "oversized pdf",
			mold: func(fx *pipelineFixture) {
				fx.uc.fileSize = func(string) (int64, error) { return testLimits().MaxPDFSize + 1, nil }
			},
			kind: domain.ErrPayloadTooLarge,
		},
		{
			name: "extraction failure",
			mold: func(fx *pipelineFixture) { fx.extractor.textErr = errors.New("corrupt xref table") },
		},
		{
			name: "insufficient content",
			mold: func(fx *pipelineFixture) { fx.extractor.text = "abstract only" },
			kind: domain.ErrInsufficientContent,
		},
		{
			name: "ai transport failure",
			mold: func(fx *pipelineFixture) { fx.generator.err = errors.New("503 from upstream") },
			kind: domain.ErrUpstreamAI,
		},
		{
			name: "empty ai response",
			mold: func(fx *pipelineFixture) { fx.generator.raw = "" },
			kind: domain.ErrEmptyUpstreamResponse,
		},
		{
			name: "unparseable ai response",
			mold: func(fx *pipelineFixture) { fx.generator.raw = "not json at all" },
			kind: domain.ErrInvalidResponseFormat,
		},
		{
			name: "incomplete ai response",
			mold: func(fx *pipelineFixture) { fx.generator.raw = `{"gist": "only one field"}` },
			kind: domain.ErrMissingRequiredField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newPipeline(t, testLimits())
			tt.mold(fx)

			_, err := fx.uc.Summarize(context.Background(), validRequest())
			if err == nil {
				t.Fatalf("expected failure")
			}
			if tt.kind != nil && !domain.IsKind(err, tt.kind) {
				t.Fatalf("expected kind %v, got %v", tt.kind, err)
			}
			if len(*fx.removed) != 1 {
				t.Fatalf("temp file deleted %d times, want exactly 1", len(*fx.removed))
			}
		})
	}
}

func TestSummarizeVerseStyleReformatsFields(t *testing.T) {
	fx := newPipeline(t, testLimits())
	fx.generator.raw = `{
		"gist": "It raps. It rhymes. It computes. It wins.",
		"analogy": "Like a cypher. Every bar lands. Every beat counts. No misses.",
		"experimental_details": "They trained hard. They tested harder. They shipped it. Done.",
		"key_findings": ["Fast flows. Tight rhymes. Big wins. No losses."],
		"why_it_matters": "Science slaps. People listen. Papers spread. Knowledge grows.",
		"key_terms": [{"term": "flow", "definition": "The rhythm. The cadence. The vibe. The groove."}]
	}`

	req := validRequest()
	req.ExplanationStyle = "eminem"
	resp, err := fx.uc.Summarize(context.Background(), req)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if !strings.Contains(resp.Summary.Gist, "\n\n") {
		t.Errorf("gist not verse-formatted: %q", resp.Summary.Gist)
	}
	if !strings.Contains(resp.Summary.KeyTerms[0].Definition, "\n\n") {
		t.Errorf("definition not verse-formatted: %q", resp.Summary.KeyTerms[0].Definition)
	}
	if resp.Summary.KeyTerms[0].Term != "flow" {
		t.Errorf("term rewritten: %q", resp.Summary.KeyTerms[0].Term)
	}
}

func TestSummarizeNonVerseStyleLeftUntouched(t *testing.T) {
	fx := newPipeline(t, testLimits())

	req := validRequest()
	req.ExplanationStyle = "shakespearean"
	resp, err := fx.uc.Summarize(context.Background(), req)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if strings.Contains(resp.Summary.Gist, "\n\n") {
		t.Errorf("non-verse style was reformatted: %q", resp.Summary.Gist)
	}
}

func TestSummarizePublishesCompletionEvent(t *testing.T) {
	limits := testLimits()
	limits.EventsEnabled = true
	fx := newPipeline(t, limits)

	if _, err := fx.uc.Summarize(context.Background(), validRequest()); err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if len(fx.publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(fx.publisher.events))
	}
	event := fx.publisher.events[0]
	if event.ArxivID != "2301.12345" {
		t.Errorf("unexpected event arxiv id %q", event.ArxivID)
	}
	if event.Title != "Attention Is Cheap" {
		t.Errorf("unexpected event title %q", event.Title)
	}
	if event.RequestID == "" {
		t.Errorf("event missing request id")
	}
}

func TestSummarizePublishFailureDoesNotFailRequest(t *testing.T) {
	limits := testLimits()
	limits.EventsEnabled = true
	fx := newPipeline(t, limits)
	fx.publisher.err = errors.New("nats unavailable")

	if _, err := fx.uc.Summarize(context.Background(), validRequest()); err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
}

func TestSummarizeFigureFailureDegradesToEmpty(t *testing.T) {
	limits := testLimits()
	limits.FiguresEnabled = true
	fx := newPipeline(t, limits)
	fx.extractor.figuresErr = errors.New("image decode failed")

	resp, err := fx.uc.Summarize(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if len(resp.Figures) != 0 {
		t.Fatalf("expected empty figures, got %d", len(resp.Figures))
	}
}

type pipelineMetricsFake struct {
	extractedChars []int
	truncations    int
	upstreamCalls  map[string]int
	upstreamErrors int
}

func (m *pipelineMetricsFake) RecordExtractedChars(_ string, chars int) {
	m.extractedChars = append(m.extractedChars, chars)
}

func (m *pipelineMetricsFake) RecordTruncation(string) { m.truncations++ }

func (m *pipelineMetricsFake) RecordUpstreamCall(_ string, upstream string, err error) {
	if m.upstreamCalls == nil {
		m.upstreamCalls = map[string]int{}
	}
	m.upstreamCalls[upstream]++
	if err != nil {
		m.upstreamErrors++
	}
}

func TestSummarizeRecordsPipelineMetrics(t *testing.T) {
	limits := testLimits()
	limits.MaxTextLength = 600
	fx := newPipeline(t, limits)
	metrics := &pipelineMetricsFake{}
	fx.uc.WithMetrics(metrics, "arxiv-simplifier-api")

	if _, err := fx.uc.Summarize(context.Background(), validRequest()); err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}

	if len(metrics.extractedChars) != 1 || metrics.extractedChars[0] != 800 {
		t.Errorf("extracted chars not recorded: %v", metrics.extractedChars)
	}
	if metrics.truncations != 1 {
		t.Errorf("truncation not recorded: %d", metrics.truncations)
	}
	if metrics.upstreamCalls["arxiv"] != 2 || metrics.upstreamCalls["gemini"] != 1 {
		t.Errorf("unexpected upstream call counts: %v", metrics.upstreamCalls)
	}
	if metrics.upstreamErrors != 0 {
		t.Errorf("no upstream errors expected, got %d", metrics.upstreamErrors)
	}
}
