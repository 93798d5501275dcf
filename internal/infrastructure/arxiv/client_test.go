package arxiv

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
	"github.com/kirillkom/arxiv-simplifier/internal/infrastructure/resilience"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.12345v2</id>
    <published>2023-01-30T18:59:59Z</published>
    <title>Attention Is
     Cheap</title>
    <author><name>A. Researcher</name></author>
    <author><name>B. Researcher</name></author>
    <link href="http://arxiv.org/abs/2301.12345v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2301.12345v2" rel="related" type="application/pdf"/>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"></feed>`

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestClient(serverURL string) *Client {
	client := New(serverURL, time.Nanosecond, testExecutor())
	return client
}

func TestSearchParsesFeedEntry(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	paper, err := newTestClient(server.URL).Search(context.Background(), "2301.12345")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if gotQuery != "id_list=2301.12345&max_results=1" {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if paper.Title != "Attention Is Cheap" {
		t.Errorf("title not normalized: %q", paper.Title)
	}
	if len(paper.Authors) != 2 || paper.Authors[0] != "A. Researcher" {
		t.Errorf("unexpected authors %v", paper.Authors)
	}
	if paper.Published == nil || paper.Published.Year() != 2023 {
		t.Errorf("published not parsed: %v", paper.Published)
	}
	if paper.PDFURL != "http://arxiv.org/pdf/2301.12345v2" {
		t.Errorf("pdf link not picked: %q", paper.PDFURL)
	}
}

func TestSearchEmptyFeedIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(emptyFeed))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "9999.99999")
	if !domain.IsKind(err, domain.ErrPaperNotFound) {
		t.Fatalf("expected ErrPaperNotFound, got %v", err)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).Search(context.Background(), "2301.12345"); err != nil {
		t.Fatalf("Search() error after retry: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestSearchExhaustedRetriesAreTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "2301.12345")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestDownloadWritesTempFile(t *testing.T) {
	const payload = "%PDF-1.5 fake body"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.tempDir = t.TempDir()

	path, err := client.Download(context.Background(), &domain.Paper{PDFURL: server.URL + "/pdf/2301.12345"})
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != payload {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestDownloadStatusErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "withdrawn", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.tempDir = t.TempDir()

	_, err := client.Download(context.Background(), &domain.Paper{PDFURL: server.URL + "/pdf/gone"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestDownloadRejectsMissingURL(t *testing.T) {
	client := newTestClient("http://export.arxiv.invalid")
	if _, err := client.Download(context.Background(), &domain.Paper{}); err == nil {
		t.Fatalf("expected error for paper without pdf url")
	}
}
