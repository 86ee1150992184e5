package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/recall/internal/chat"
)

var (
	verbose      bool
	jsonLogs     bool
	providerType string
	searchLimit  int
	statProvider string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Searchable history for LLM conversations",
	Long: `Recall records every prompt/response exchange with an LLM provider and
makes past conversations retrievable by semantic similarity.`,
}

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Ask a question and record the exchange",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp()
		defer app.Close()

		kind, err := chat.ParseProvider(providerType)
		if err != nil {
			app.Fatal(err, "Unknown provider")
		}

		response, err := app.Service.AskLLM(context.Background(), kind, args[0])
		if err != nil {
			app.Fatal(err, "Ask failed")
		}
		fmt.Println(response)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find past conversations similar to a query",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp()
		defer app.Close()

		results, err := app.Service.SearchChatHistory(context.Background(), args[0], searchLimit, nil)
		if err != nil {
			app.Fatal(err, "Search failed")
		}
		if len(results) == 0 {
			fmt.Println("No similar conversations found.")
			return
		}
		for i, res := range results {
			fmt.Printf("%d. [%s] %s (score %.3f)\n", i+1, res.Record.Provider,
				res.Record.CreatedAt.Format("2006-01-02 15:04"), res.Score)
			fmt.Printf("   Q: %s\n", res.Record.Prompt)
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored history statistics",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp()
		defer app.Close()

		var filter *chat.Filter
		if statProvider != "" {
			kind, err := chat.ParseProvider(statProvider)
			if err != nil {
				app.Fatal(err, "Unknown provider")
			}
			filter = &chat.Filter{Providers: []chat.ProviderKind{kind}}
		}

		stats, err := app.Service.GetChatStats(context.Background(), filter)
		if err != nil {
			app.Fatal(err, "Stats failed")
		}
		fmt.Printf("Total conversations: %d\n", stats.TotalCount)
		for kind, count := range stats.PerProvider {
			fmt.Printf("  %s: %d\n", kind, count)
		}
		if stats.TotalCount > 0 {
			fmt.Printf("Span: %s .. %s\n",
				stats.Earliest.Format("2006-01-02 15:04"), stats.Latest.Format("2006-01-02 15:04"))
		}
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "JSON log output")

	RootCmd.AddCommand(askCmd)
	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(statsCmd)

	askCmd.Flags().StringVarP(&providerType, "provider", "p", "openai", "LLM provider (openai, anthropic, google)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 5, "Maximum number of results")
	statsCmd.Flags().StringVarP(&statProvider, "provider", "p", "", "Restrict to one provider")
}
