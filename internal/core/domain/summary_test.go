package domain

import (
	"strings"
	"testing"
)

const innerSummaryJSON = `{
	"gist": "g",
	"analogy": "a",
	"experimental_details": "e",
	"key_findings": ["f1", "f2"],
	"why_it_matters": "w",
	"key_terms": [{"term": "t", "definition": "d"}]
}`

func TestParseSummaryResultStripsFences(t *testing.T) {
	fenced := "```json\n" + innerSummaryJSON + "\n```"

	fromFenced, err := ParseSummaryResult(fenced)
	if err != nil {
		t.Fatalf("fenced parse failed: %v", err)
	}
	fromPlain, err := ParseSummaryResult(innerSummaryJSON)
	if err != nil {
		t.Fatalf("plain parse failed: %v", err)
	}

	if fromFenced.Gist != fromPlain.Gist || fromFenced.WhyItMatters != fromPlain.WhyItMatters ||
		len(fromFenced.KeyFindings) != len(fromPlain.KeyFindings) || len(fromFenced.KeyTerms) != len(fromPlain.KeyTerms) {
		t.Fatalf("fenced and plain input disagree: %+v vs %+v", fromFenced, fromPlain)
	}
	if fromFenced.Gist != "g" || len(fromFenced.KeyFindings) != 2 {
		t.Fatalf("unexpected parse result: %+v", fromFenced)
	}
}

func TestParseSummaryResultRejectsNonJSON(t *testing.T) {
	for _, raw := range []string{
		"the model apologizes and refuses",
		"```json\nnot even json\n```",
		"",
		`["an", "array"]`,
	} {
		_, err := ParseSummaryResult(raw)
		if !IsKind(err, ErrInvalidResponseFormat) {
			t.Errorf("raw %.30q: expected ErrInvalidResponseFormat, got %v", raw, err)
		}
	}
}

func TestParseSummaryResultNamesMissingField(t *testing.T) {
	raw := `{
		"gist": "g",
		"analogy": "a",
		"experimental_details": "e",
		"key_findings": [],
		"key_terms": []
	}`

	_, err := ParseSummaryResult(raw)
	if !IsKind(err, ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
	if got := MissingField(err); got != "why_it_matters" {
		t.Fatalf("MissingField() = %q, want %q", got, "why_it_matters")
	}
}

func TestParseSummaryResultReportsFirstMissingInFixedOrder(t *testing.T) {
	_, err := ParseSummaryResult(`{"why_it_matters": "w"}`)
	if got := MissingField(err); got != "gist" {
		t.Fatalf("MissingField() = %q, want %q", got, "gist")
	}
}

func TestParseSummaryResultIgnoresExtraKeys(t *testing.T) {
	raw := strings.Replace(innerSummaryJSON, `"gist": "g",`, `"gist": "g", "confidence": 0.9,`, 1)
	result, err := ParseSummaryResult(raw)
	if err != nil {
		t.Fatalf("parse with extra key failed: %v", err)
	}
	if result.Gist != "g" {
		t.Fatalf("unexpected gist %q", result.Gist)
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{}\n```", "{}"},
		{"  {}  ", "{}"},
		{"{}", "{}"},
		{"```\n{}\n```", "{}"},
	}
	for _, tt := range tests {
		if got := CleanJSONResponse(tt.in); got != tt.want {
			t.Errorf("CleanJSONResponse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMissingFieldOnOtherKinds(t *testing.T) {
	err := WrapError(ErrInvalidResponseFormat, "parse", ErrTemporary)
	if got := MissingField(err); got != "" {
		t.Fatalf("MissingField() on wrong kind = %q, want empty", got)
	}
}
