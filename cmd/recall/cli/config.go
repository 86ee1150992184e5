package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/recall/internal/credential"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		app := mustApp()
		defer app.Close()

		// API keys are encrypted before they hit the database.
		if strings.HasSuffix(key, ".api_key") {
			creds, err := credential.NewManager()
			if err != nil {
				app.Fatal(err, "Failed to init credential manager")
			}
			value, err = creds.Encrypt(value)
			if err != nil {
				app.Fatal(err, "Failed to encrypt value")
			}
		}

		if err := app.Store.SetConfig(key, value); err != nil {
			app.Fatal(err, "Failed to set config")
		}
		fmt.Printf("Configuration saved: %s\n", key)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		app := mustApp()
		defer app.Close()

		val, err := app.Store.GetConfig(key)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if val == "" {
			fmt.Println("(not set)")
			return
		}

		if strings.HasSuffix(key, ".api_key") {
			creds, err := credential.NewManager()
			if err != nil {
				app.Fatal(err, "Failed to init credential manager")
			}
			plain, err := creds.Decrypt(val)
			if err != nil {
				app.Fatal(err, "Failed to decrypt value")
			}
			fmt.Println(credential.MaskSecret(plain))
			return
		}
		fmt.Println(val)
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
}
