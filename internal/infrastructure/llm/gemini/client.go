// Package gemini implements the summary generator against the Gemini
// generateContent REST API. Responses are schema-constrained server side;
// the validator downstream still re-checks the top-level shape.
package gemini

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/arxiv-simplifier/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model, apiKey string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType   string         `json:"responseMimeType"`
	ResponseJSONSchema map[string]any `json:"responseJsonSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate submits the paper text with the style system prompt and returns
// the raw model text. An empty result is returned as-is; the caller owns the
// empty-response error kind.
func (c *Client) Generate(ctx context.Context, text, systemPrompt string, schema map[string]any) (string, error) {
	request := generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType:   "application/json",
			ResponseJSONSchema: schema,
		},
	}
	if systemPrompt != "" {
		request.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}

	path := "/v1beta/models/" + c.model + ":generateContent"

	var response generateResponse
	err := c.executor.Execute(ctx, "gemini.generate", func(ctx context.Context) error {
		return c.postJSON(ctx, path, request, &response, "generate")
	}, classifyGeminiError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("gemini generate", err)
	}

	return strings.TrimSpace(joinCandidateText(response)), nil
}

func joinCandidateText(response generateResponse) string {
	if len(response.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
