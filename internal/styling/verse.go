// Package styling post-processes validated summaries for explanation styles
// that need a structural rendering pass. Verse breaking is the only transform
// today; the summary-wide walk in FormatSummary is where any future one slots
// in.
package styling

import (
	"strings"

	"github.com/kirillkom/arxiv-simplifier/internal/core/domain"
)

// marker separates verse lines in the rendered output. Its presence in a
// field is also the idempotence signal: already-marked text passes through
// untouched.
const marker = "\n\n"

// lineWidth is the character bound the fallback wrapper closes lines at.
const lineWidth = 80

// AddVerseBreaks rewrites prose into short marker-delimited verse lines.
// Sentence pairs become one line each; text too sparse in sentence punctuation
// falls back to width-based wrapping so long input always ends up multi-line.
func AddVerseBreaks(text string) string {
	if strings.Contains(text, marker) {
		return text
	}

	rebuilt := regroupSentencePairs(text)
	if strings.Contains(rebuilt, marker) {
		return rebuilt
	}
	return wrapLongLines(rebuilt)
}

// regroupSentencePairs splits on sentence-terminal punctuation and re-joins
// the segments two per line, re-punctuating every non-final segment with "!".
func regroupSentencePairs(text string) string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	segments := raw[:0]
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return text
	}

	var b strings.Builder
	for i, seg := range segments {
		b.WriteString(seg)
		if i == len(segments)-1 {
			break
		}
		b.WriteString("!")
		if (i+1)%2 == 0 {
			b.WriteString(marker)
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}

// wrapLongLines greedily accumulates words, closing a line once it has grown
// past lineWidth and the last word carries terminal punctuation. When the
// input has no punctuation to close on, it re-wraps on width alone.
func wrapLongLines(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var line strings.Builder
	for _, word := range words {
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
		if line.Len() > lineWidth && endsTerminal(word) {
			lines = append(lines, line.String())
			line.Reset()
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	if len(lines) < 2 {
		return wrapByWidth(words)
	}
	return strings.Join(lines, marker)
}

func wrapByWidth(words []string) string {
	var lines []string
	var line strings.Builder
	for _, word := range words {
		if line.Len() > 0 && line.Len()+1+len(word) > lineWidth {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, marker)
}

func endsTerminal(word string) bool {
	return strings.HasSuffix(word, ".") ||
		strings.HasSuffix(word, "!") ||
		strings.HasSuffix(word, "?")
}

// FormatSummary applies AddVerseBreaks to every free-text field of a
// validated summary in place: the four scalar fields, each finding, and each
// term definition. Term names and the field set itself are never touched.
func FormatSummary(result *domain.SummaryResult) {
	if result == nil {
		return
	}
	result.Gist = AddVerseBreaks(result.Gist)
	result.Analogy = AddVerseBreaks(result.Analogy)
	result.ExperimentalDetails = AddVerseBreaks(result.ExperimentalDetails)
	result.WhyItMatters = AddVerseBreaks(result.WhyItMatters)
	for i, finding := range result.KeyFindings {
		result.KeyFindings[i] = AddVerseBreaks(finding)
	}
	for i, term := range result.KeyTerms {
		result.KeyTerms[i].Definition = AddVerseBreaks(term.Definition)
	}
}
