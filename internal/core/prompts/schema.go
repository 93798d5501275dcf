package prompts

// PaperSummarySchema is the JSON schema the AI backend is constrained to.
// Shipped to the model as-is; response parsing re-checks the top-level keys.
var PaperSummarySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"gist": map[string]any{
			"type":        "string",
			"description": "A single, compelling sentence summarizing the entire paper.",
		},
		"analogy": map[string]any{
			"type":        "string",
			"description": "A simple, powerful analogy or metaphor to explain the core concept.",
		},
		"experimental_details": map[string]any{
			"type":        "string",
			"description": "A brief description of the entire experimental setup or methodology used in the research. do not miss any important details.",
		},
		"key_findings": map[string]any{
			"type":        "array",
			"description": "A list of 3-5 bullet points of the most important discoveries.",
			"items":       map[string]any{"type": "string"},
		},
		"why_it_matters": map[string]any{
			"type":        "string",
			"description": "A short paragraph explaining the potential real-world impact.",
		},
		"key_terms": map[string]any{
			"type":        "array",
			"description": "A list of the 5 most important technical terms, with definitions.",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"term":       map[string]any{"type": "string", "description": "The technical term."},
					"definition": map[string]any{"type": "string", "description": "A simple definition of the term."},
				},
				"required": []string{"term", "definition"},
			},
		},
	},
	"required": []string{
		"gist",
		"analogy",
		"experimental_details",
		"key_findings",
		"why_it_matters",
		"key_terms",
	},
}
