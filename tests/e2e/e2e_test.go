package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Builds the real binary and drives the stdio tool protocol end to end.
// No API keys are configured, so we exercise the paths that work without
// them plus the failure path for search.
func TestE2E_ServeStdio(t *testing.T) {
	rootDir, _ := filepath.Abs("../../")
	binPath := filepath.Join(t.TempDir(), "recall_e2e")

	buildCmd := exec.Command("go", "build", "-o", binPath, "github.com/felixgeelhaar/recall/cmd/recall")
	buildCmd.Dir = rootDir
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build recall: %v\n%s", err, out)
	}

	// Fresh HOME so the store and config land in a temp directory.
	homeDir := t.TempDir()

	input := `{"tool": "list_tools"}` + "\n" +
		`{"tool": "get_chat_stats"}` + "\n" +
		`{"tool": "search_chat_history", "args": {"query": "anything"}}` + "\n"

	cmd := exec.Command(binPath, "serve")
	cmd.Dir = homeDir
	cmd.Env = append(os.Environ(), "HOME="+homeDir, "OPENAI_API_KEY=", "ANTHROPIC_API_KEY=", "GOOGLE_API_KEY=")
	cmd.Stdin = strings.NewReader(input)

	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("serve failed: %v\n%s", err, out)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 responses, got %d:\n%s", len(lines), out)
	}

	if !strings.Contains(lines[0], "search_chat_history") || !strings.Contains(lines[0], "ask_llm") {
		t.Errorf("list_tools incomplete: %s", lines[0])
	}
	if !strings.Contains(lines[1], "Total conversations: 0") {
		t.Errorf("Expected empty stats, got: %s", lines[1])
	}
	// Without an embedding key, search reports a failure instead of an
	// empty-but-successful result.
	if !strings.Contains(lines[2], `"ok":false`) || !strings.Contains(lines[2], "embedding") {
		t.Errorf("Expected embedding failure, got: %s", lines[2])
	}

	// The store file was created under the fresh HOME.
	if _, err := os.Stat(filepath.Join(homeDir, ".recall", "history.db")); err != nil {
		t.Errorf("Expected store file to exist: %v", err)
	}
}
