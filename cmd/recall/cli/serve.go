package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/recall/internal/tools"
)

// Line-delimited JSON protocol for the tool front end. Each request names
// a tool and carries its arguments; "list_tools" enumerates them.
type toolRequest struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

type toolResponse struct {
	OK     bool               `json:"ok"`
	Output string             `json:"output,omitempty"`
	Error  string             `json:"error,omitempty"`
	Tools  []tools.Definition `json:"tools,omitempty"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the history tools over stdio",
	Long: `Reads one JSON request per line from stdin and writes one JSON
response per line to stdout:

  {"tool": "search_chat_history", "args": {"query": "ingest pipeline", "limit": 3}}
  {"tool": "ask_llm", "args": {"question": "...", "provider": "anthropic"}}
  {"tool": "get_chat_stats"}
  {"tool": "list_tools"}`,
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp()
		defer app.Close()

		if err := serveLoop(context.Background(), app.Dispatcher, os.Stdin, os.Stdout); err != nil {
			app.Fatal(err, "Serve loop failed")
		}
	},
}

func serveLoop(ctx context.Context, d *tools.Dispatcher, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req toolRequest
		if err := json.Unmarshal(line, &req); err != nil {
			if err := enc.Encode(toolResponse{OK: false, Error: fmt.Sprintf("invalid request: %v", err)}); err != nil {
				return err
			}
			continue
		}

		var resp toolResponse
		if req.Tool == "list_tools" {
			resp = toolResponse{OK: true, Tools: d.Definitions()}
		} else if output, err := d.Handle(ctx, req.Tool, req.Args); err != nil {
			resp = toolResponse{OK: false, Error: err.Error()}
		} else {
			resp = toolResponse{OK: true, Output: output}
		}

		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
