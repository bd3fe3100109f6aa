package prompt

import (
	"strings"
	"testing"
)

// TestParseDefaultsBlankTemplate verifies the default template is used.
func TestParseDefaultsBlankTemplate(t *testing.T) {
	tmpl, err := Parse("  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := tmpl.Render("What is 2+2? A) 3 B) 4")
	if !strings.Contains(out, "'Answer: X'") || !strings.HasSuffix(out, "What is 2+2? A) 3 B) 4\n") {
		t.Fatalf("unexpected prompt %q", out)
	}
}

// TestParseRequiresPlaceholder verifies templates must include the query.
func TestParseRequiresPlaceholder(t *testing.T) {
	if _, err := Parse("no query here"); err == nil {
		t.Fatalf("expected error")
	}
	tmpl, err := Parse("Q: {{query}} / {{query}}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := tmpl.Render("x"); got != "Q: x / x" {
		t.Fatalf("unexpected render %q", got)
	}
}
