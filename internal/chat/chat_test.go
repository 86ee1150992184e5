package chat

import (
	"errors"
	"testing"
)

func TestParseProvider(t *testing.T) {
	for _, tag := range []string{"openai", "anthropic", "google"} {
		p, err := ParseProvider(tag)
		if err != nil {
			t.Fatalf("ParseProvider(%q) failed: %v", tag, err)
		}
		if string(p) != tag {
			t.Errorf("Expected %q, got %q", tag, p)
		}
		if !p.Valid() {
			t.Errorf("Expected %q to be valid", tag)
		}
	}

	for _, tag := range []string{"", "ollama", "OpenAI", "azure"} {
		if _, err := ParseProvider(tag); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ParseProvider(%q): expected ErrInvalidArgument, got %v", tag, err)
		}
	}
}
