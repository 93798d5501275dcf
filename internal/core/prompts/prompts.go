// Package prompts holds the closed explanation-style catalog and the system
// prompt / response schema handed to the AI backend.
//
// The catalog exposes two deliberately different policies for the same style
// value: IsAllowed is the strict allow-list check applied to untrusted request
// input, while SystemPrompt is permissive and silently falls back to the
// default style so internal callers can never fail a prompt lookup.
package prompts

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var stylesYAML []byte

// DefaultStyle is the fallback explanation style for permissive lookups.
const DefaultStyle = "five-year-old"

type styleEntry struct {
	Name        string `yaml:"name"`
	Verse       bool   `yaml:"verse"`
	Instruction string `yaml:"instruction"`
}

type catalogFile struct {
	Default string       `yaml:"default"`
	Styles  []styleEntry `yaml:"styles"`
}

// Catalog is the parsed, immutable style catalog.
type Catalog struct {
	defaultStyle string
	styles       map[string]styleEntry
	order        []string
}

// Load parses the embedded styles.yaml. It fails only on a broken embed,
// which is a build defect rather than a runtime condition.
func Load() (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(stylesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse styles catalog: %w", err)
	}
	if len(file.Styles) == 0 {
		return nil, fmt.Errorf("styles catalog is empty")
	}

	defaultStyle := file.Default
	if defaultStyle == "" {
		defaultStyle = DefaultStyle
	}

	catalog := &Catalog{
		defaultStyle: defaultStyle,
		styles:       make(map[string]styleEntry, len(file.Styles)),
		order:        make([]string, 0, len(file.Styles)),
	}
	for _, entry := range file.Styles {
		catalog.styles[entry.Name] = entry
		catalog.order = append(catalog.order, entry.Name)
	}
	if _, ok := catalog.styles[defaultStyle]; !ok {
		return nil, fmt.Errorf("default style %q is not in the catalog", defaultStyle)
	}
	return catalog, nil
}

// IsAllowed reports whether a style value from untrusted input is a member of
// the closed catalog. Unknown values are rejected, never defaulted.
func (c *Catalog) IsAllowed(style string) bool {
	_, ok := c.styles[style]
	return ok
}

// NeedsVerse reports whether the style requires the verse post-processing
// pass over the validated summary.
func (c *Catalog) NeedsVerse(style string) bool {
	return c.styles[style].Verse
}

// Styles returns the catalog members in declaration order.
func (c *Catalog) Styles() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// SystemPrompt builds the full system prompt for a style. Unknown styles fall
// back to the default instruction rather than failing.
func (c *Catalog) SystemPrompt(style string) string {
	entry, ok := c.styles[style]
	if !ok {
		entry = c.styles[c.defaultStyle]
	}

	return fmt.Sprintf(`
You are "ResearchLikeIAmFive", an expert science communicator.
Your goal is to explain complex research papers to a complete layperson in the given explanation style.
You will be given the text content of a research paper.

EXPLANATION STYLE: %s

Your task is to return a JSON object with the following exact keys:
"gist", "analogy", "experimental_details", "key_findings","why_it_matters", "key_terms",

Make sure EVERY SINGLE response follows the explanation style provided.
`, entry.Instruction)
}
