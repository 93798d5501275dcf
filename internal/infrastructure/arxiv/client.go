// Package arxiv implements the paper-fetch and PDF-download collaborators
// against the arXiv Atom API. All outbound traffic goes through a shared
// politeness limiter; arXiv asks for no more than one request every few
// seconds per client.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
	"github.com/kirillkom/arxiv-simplifier/internal/infrastructure/resilience"
)

type Client struct {
	queryURL   string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	tempDir    string
}

func New(queryURL string, requestInterval time.Duration, executor *resilience.Executor) *Client {
	if requestInterval <= 0 {
		requestInterval = 3 * time.Second
	}
	return &Client{
		queryURL:   strings.TrimRight(queryURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(requestInterval), 1),
		executor:   executor,
		tempDir:    os.TempDir(),
	}
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string       `xml:"id"`
	Title     string       `xml:"title"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

var extraWhitespace = regexp.MustCompile(`\s+`)

// Search resolves an arXiv identifier via the query API. An empty feed is a
// not-found, not a transport failure.
func (c *Client) Search(ctx context.Context, arxivID string) (*domain.Paper, error) {
	target := c.queryURL + "?id_list=" + url.QueryEscape(arxivID) + "&max_results=1"

	var feed atomFeed
	err := c.executor.Execute(ctx, "arxiv.search", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.getXML(ctx, target, &feed, "search")
	}, classifyArxivError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("arxiv search", err)
	}

	entry, ok := firstPaperEntry(feed)
	if !ok {
		return nil, domain.WrapError(domain.ErrPaperNotFound, "arxiv search", fmt.Errorf("no entry for id %s", arxivID))
	}
	return toPaper(entry, arxivID), nil
}

// firstPaperEntry skips the placeholder entry the API returns for malformed
// identifiers, which carries no title.
func firstPaperEntry(feed atomFeed) (atomEntry, bool) {
	for _, entry := range feed.Entries {
		if strings.TrimSpace(entry.Title) != "" && !strings.Contains(entry.ID, "/api/errors") {
			return entry, true
		}
	}
	return atomEntry{}, false
}

func toPaper(entry atomEntry, arxivID string) *domain.Paper {
	authors := make([]string, 0, len(entry.Authors))
	for _, author := range entry.Authors {
		if name := strings.TrimSpace(author.Name); name != "" {
			authors = append(authors, name)
		}
	}

	paper := &domain.Paper{
		Title:   normalizeWhitespace(entry.Title),
		Authors: authors,
		EntryID: strings.TrimSpace(entry.ID),
		PDFURL:  pdfLink(entry, arxivID),
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published)); err == nil {
		paper.Published = &ts
	}
	return paper
}

func pdfLink(entry atomEntry, arxivID string) string {
	for _, link := range entry.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			return link.Href
		}
	}
	return "https://arxiv.org/pdf/" + arxivID
}

// Download fetches the paper's PDF into a temporary file and returns its
// path. The caller owns the file. A partial file left by a failed copy is
// removed here, not by the caller.
func (c *Client) Download(ctx context.Context, paper *domain.Paper) (string, error) {
	if paper == nil || paper.PDFURL == "" {
		return "", fmt.Errorf("paper has no pdf url")
	}

	var path string
	err := c.executor.Execute(ctx, "arxiv.download", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		downloaded, err := c.downloadOnce(ctx, paper.PDFURL)
		if err != nil {
			return err
		}
		path = downloaded
		return nil
	}, classifyArxivError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("arxiv download", err)
	}
	return path, nil
}

func (c *Client) downloadOnce(ctx context.Context, pdfURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("arxiv download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &HTTPStatusError{
			Operation:  "download",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	file, err := os.CreateTemp(c.tempDir, "arxiv-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp pdf: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("write temp pdf: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("close temp pdf: %w", err)
	}
	return file.Name(), nil
}

func (c *Client) getXML(ctx context.Context, target string, out any, operation string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("arxiv %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(extraWhitespace.ReplaceAllString(s, " "))
}
