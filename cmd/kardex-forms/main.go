package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kardex-forms",
		Short:         "Patient form rules, rendering and lookups",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(serveCmd())
	root.AddCommand(rulesCmd())
	root.AddCommand(tableCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(fillCmd())
	root.AddCommand(lookupCmd())
	root.AddCommand(rutCmd())
	return root
}
