package domain

import "time"

// Paper is the immutable record the arXiv fetch collaborator hands back.
// Published is nil when the feed entry carries no usable timestamp.
type Paper struct {
	Title     string     `json:"title"`
	Authors   []string   `json:"authors"`
	Published *time.Time `json:"published"`
	EntryID   string     `json:"entry_id"`
	PDFURL    string     `json:"pdf_url"`
}

// PaperSource identifies one fetch target over its lifecycle: the raw
// submitted URL, the arXiv identifier derived from it, and the transient
// local path of the downloaded PDF once it exists.
type PaperSource struct {
	URL     string
	ArxivID string
	PDFPath string
}

// Figure is one extracted image, base64-encoded as a data URI.
type Figure struct {
	Data  string `json:"data"`
	Page  int    `json:"page"`
	Index int    `json:"index"`
}

// PaperInfo is the paper metadata block of a summarize response.
type PaperInfo struct {
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Published *string  `json:"published"`
	ArxivID   string   `json:"arxiv_id"`
	URL       string   `json:"url"`
}
