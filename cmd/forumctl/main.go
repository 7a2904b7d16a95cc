package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "forumctl",
	Short: "Operate the forum database",
	Long: `Maintenance tool for the forum API.

Commands:
  migrate           Create or update the forum tables
  seed --file FILE  Upsert channels and users from a YAML fixtures file
  token             Mint a development bearer token`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
