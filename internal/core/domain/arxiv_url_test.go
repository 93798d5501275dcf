package domain

import (
	"strings"
	"testing"
)

func TestValidateArxivURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		violation URLViolation
	}{
		{name: "abs url", url: "https://arxiv.org/abs/2301.12345"},
		{name: "versioned abs url", url: "https://arxiv.org/abs/2301.12345v2"},
		{name: "pdf url", url: "https://arxiv.org/pdf/2301.12345"},
		{name: "pdf url with extension", url: "https://arxiv.org/pdf/2301.12345v1.pdf"},
		{name: "www host", url: "https://www.arxiv.org/abs/2301.12345"},
		{name: "export host", url: "https://export.arxiv.org/abs/2301.12345"},
		{name: "trailing slash", url: "https://arxiv.org/abs/2301.12345/"},
		{name: "five digit suffix", url: "https://arxiv.org/abs/2408.00001"},
		{name: "http scheme", url: "http://arxiv.org/abs/2301.12345"},
		{name: "whitespace padding past bound", url: "  https://arxiv.org/abs/2301.12345" + strings.Repeat(" ", 3000)},

		{name: "wrong host", url: "https://evil.com/abs/2301.12345", violation: ViolationHost},
		{name: "lookalike host", url: "https://arxiv.org.evil.com/abs/2301.12345", violation: ViolationHost},
		{name: "wrong digit count", url: "https://arxiv.org/abs/12345", violation: ViolationPattern},
		{name: "three digit suffix", url: "https://arxiv.org/abs/2301.123", violation: ViolationPattern},
		{name: "old style identifier", url: "https://arxiv.org/abs/cond-mat/0001001", violation: ViolationPattern},
		{name: "listing page", url: "https://arxiv.org/list/cs.LG/recent", violation: ViolationPattern},
		{name: "query string", url: "https://arxiv.org/abs/2301.12345?extra=1", violation: ViolationPattern},
		{name: "fragment", url: "https://arxiv.org/abs/2301.12345#section", violation: ViolationPattern},
		{name: "empty", url: "", violation: ViolationPattern},
		{name: "relative", url: "/abs/2301.12345", violation: ViolationPattern},
		{name: "ftp scheme", url: "ftp://arxiv.org/abs/2301.12345", violation: ViolationPattern},
		{name: "over length", url: "https://arxiv.org/abs/2301.12345?" + strings.Repeat("x", 3000), violation: ViolationLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, violation, err := ValidateArxivURL(tt.url, 2048)
			if tt.violation == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if !IsKind(err, ErrInvalidURL) {
				t.Fatalf("expected ErrInvalidURL, got %v", err)
			}
			if violation != tt.violation {
				t.Fatalf("violation = %q, want %q", violation, tt.violation)
			}
		})
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://arxiv.org/abs/2301.12345", "2301.12345"},
		{"https://arxiv.org/abs/2301.12345v2", "2301.12345"},
		{"https://arxiv.org/pdf/2408.00001v1.pdf", "2408.00001"},
	}
	for _, tt := range tests {
		got, err := ExtractArxivID(tt.url)
		if err != nil {
			t.Fatalf("ExtractArxivID(%q) error: %v", tt.url, err)
		}
		if got != tt.want {
			t.Errorf("ExtractArxivID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}

	if _, err := ExtractArxivID("https://arxiv.org/"); !IsKind(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL for id-less url, got %v", err)
	}
}
