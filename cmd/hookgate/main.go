package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/avelmore/hookgate/internal/log"
)

var version = "0.1.0"

func init() {
	// Load .env if present (silent fail if not found)
	_ = godotenv.Load()

	// Initialize logging (enabled via HOOKGATE_DEBUG=1)
	_ = log.Init()
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hookgate",
	Short: "hookgate - hook decision pipeline for agent lifecycle events",
	Long: `Hookgate gates, observes, and annotates agent lifecycle events.
For each event, the configured hooks run in order and their outcomes
are merged into one decision.

  hookgate event UserPromptSubmit < event.json
  hookgate state
  hookgate state clear`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(stateCmd)
}
