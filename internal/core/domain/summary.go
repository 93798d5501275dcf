package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// KeyTerm is one technical term with a layperson definition.
type KeyTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// SummaryResult is the fixed-shape record the AI backend produces.
type SummaryResult struct {
	Gist                string    `json:"gist"`
	Analogy             string    `json:"analogy"`
	ExperimentalDetails string    `json:"experimental_details"`
	KeyFindings         []string  `json:"key_findings"`
	WhyItMatters        string    `json:"why_it_matters"`
	KeyTerms            []KeyTerm `json:"key_terms"`
}

// requiredSummaryFields is the fixed scan order for missing-field reporting.
var requiredSummaryFields = []string{
	"gist",
	"analogy",
	"experimental_details",
	"key_findings",
	"why_it_matters",
	"key_terms",
}

// ParseSummaryResult validates a raw model response, possibly wrapped in
// markdown code fences, into a SummaryResult. All six top-level keys must be
// present; nothing below the top level is validated here because the
// schema-constrained generation upstream is relied on for item shapes.
func ParseSummaryResult(raw string) (*SummaryResult, error) {
	cleaned := CleanJSONResponse(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, WrapError(ErrInvalidResponseFormat, "parse summary json", err)
	}

	for _, field := range requiredSummaryFields {
		if _, ok := fields[field]; !ok {
			return nil, WrapError(ErrMissingRequiredField, "validate summary", fmt.Errorf("missing required field: %s", field))
		}
	}

	var result SummaryResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, WrapError(ErrInvalidResponseFormat, "decode summary json", err)
	}
	return &result, nil
}

// CleanJSONResponse strips surrounding whitespace and markdown fence markers
// from a model response so the payload can be parsed as plain JSON.
func CleanJSONResponse(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// MissingField extracts the field name reported by a MissingRequiredField
// error, or "" when the error is of another kind.
func MissingField(err error) string {
	if !IsKind(err, ErrMissingRequiredField) {
		return ""
	}
	msg := err.Error()
	idx := strings.LastIndex(msg, "missing required field: ")
	if idx < 0 {
		return ""
	}
	return msg[idx+len("missing required field: "):]
}
