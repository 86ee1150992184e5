package observe

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	obs := New(buf, true)

	if obs == nil {
		t.Fatal("expected non-nil Observer")
	}

	obs.Log().Info().Str("provider", "openai").Msg("exchange recorded")
	if !strings.Contains(buf.String(), "exchange recorded") {
		t.Errorf("expected output to contain log message, got %q", buf.String())
	}
}

func TestNewJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	obs := NewJSON(buf, true)

	obs.Log().Info().Msg("structured")
	if !strings.Contains(buf.String(), "structured") {
		t.Errorf("expected JSON output to contain message, got %q", buf.String())
	}
}

func TestVerbosityGate(t *testing.T) {
	buf := &bytes.Buffer{}
	obs := New(buf, false)

	obs.Log().Info().Msg("quiet")
	if strings.Contains(buf.String(), "quiet") {
		t.Error("info output should be suppressed when not verbose")
	}

	obs.Log().Warn().Msg("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Error("warnings should always be shown")
	}
}

func TestStartSpan(t *testing.T) {
	obs := Nop()

	ctx, span := obs.StartSpan(context.Background(), "search_chat_history")
	if ctx == nil || span == nil {
		t.Fatal("expected non-nil context and span")
	}
	span.End()

	if err := obs.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
