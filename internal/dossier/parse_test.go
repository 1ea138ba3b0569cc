package dossier

import (
	"errors"
	"strings"
	"testing"
)

const validReply = `{
	"personality": "Analytical and data-driven, prefers concise communication.",
	"painPoints": ["Long sales cycles", "Poor CRM hygiene"],
	"iceBreakers": ["Saw your talk at SaaStr"],
	"emailDraft": "Hi Jane, quick question about your pipeline..."
}`

func TestParseResponse(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		d, err := ParseResponse(validReply)
		if err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
		if d.Personality == "" {
			t.Error("expected personality to be set")
		}
		if len(d.PainPoints) != 2 {
			t.Errorf("expected 2 pain points, got %d", len(d.PainPoints))
		}
	})

	t.Run("json code fence", func(t *testing.T) {
		d, err := ParseResponse("```json\n" + validReply + "\n```")
		if err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
		if d.EmailDraft == "" {
			t.Error("expected email draft to survive fence stripping")
		}
	})

	t.Run("bare code fence", func(t *testing.T) {
		if _, err := ParseResponse("```\n" + validReply + "\n```"); err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		if _, err := ParseResponse("\n\n  " + validReply + "  \n"); err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
	})

	t.Run("not JSON", func(t *testing.T) {
		_, err := ParseResponse("I'm sorry, I can't help with that.")
		if !errors.Is(err, ErrBadProviderOutput) {
			t.Fatalf("expected ErrBadProviderOutput, got %v", err)
		}
	})

	t.Run("empty object", func(t *testing.T) {
		_, err := ParseResponse("{}")
		if !errors.Is(err, ErrBadProviderOutput) {
			t.Fatalf("expected ErrBadProviderOutput for empty dossier, got %v", err)
		}
	})

	t.Run("missing arrays become empty", func(t *testing.T) {
		d, err := ParseResponse(`{"personality": "p", "emailDraft": "e"}`)
		if err != nil {
			t.Fatalf("ParseResponse: %v", err)
		}
		if d.PainPoints == nil || d.IceBreakers == nil {
			t.Error("expected nil slices to be normalized to empty")
		}
	})
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Jane Doe", "Acme Corp", "VP Sales")

	for _, want := range []string{"Jane Doe", "Acme Corp", "VP Sales", "painPoints", "iceBreakers", "emailDraft", "personality"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(prompt, "JSON") {
		t.Error("prompt should demand JSON output")
	}
}
