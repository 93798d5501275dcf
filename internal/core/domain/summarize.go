package domain

import "time"

// SummarizeRequest is the inbound payload of the summarization operation.
type SummarizeRequest struct {
	URL              string `json:"url"`
	ExplanationStyle string `json:"explanation_style"`
}

// SummarizeResponse is the success payload. Figures is always present in the
// encoded output, as an empty array when figure extraction is disabled.
type SummarizeResponse struct {
	Summary          *SummaryResult `json:"summary"`
	PaperInfo        PaperInfo      `json:"paper_info"`
	ExplanationStyle string         `json:"explanation_style"`
	Figures          []Figure       `json:"figures"`
}

// SummaryCompleted is the event published after a pipeline run completes,
// consumed by the history worker.
type SummaryCompleted struct {
	RequestID        string    `json:"request_id"`
	ArxivID          string    `json:"arxiv_id"`
	Title            string    `json:"title"`
	ExplanationStyle string    `json:"explanation_style"`
	Gist             string    `json:"gist"`
	Truncated        bool      `json:"truncated"`
	CompletedAt      time.Time `json:"completed_at"`
}
