package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "food-risk-scanner",
		Short: "Predict disease risk and health scores for foods",
		Long: `Food Risk Scanner predicts the disease-risk class of a food from its
nutritional profile with a pre-trained gradient-boosted model, and scores
the profile with a rule-based health heuristic.

Commands:

1. serve: JSON HTTP API for the web frontend
   - /api/search_food, /api/analyze_food, /api/categories,
     /api/healthy_foods, /api/analyze_label
   - Optional Bearer token on /api/* (API_TOKEN)

2. mcp: MCP tool server
   - HTTP mode (default): Bearer token required except /health (AUTH_TOKEN)
   - STDIO mode (--stdio): local clients, no authentication

3. scan: interactive terminal menu

4. label: read a nutrition label photo and analyze it

5. fetch: download the model bundle and food database, then exit

6. merge: build the training datasets from survey CSV exports

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMCPCmd(),
		newScanCmd(),
		newLabelCmd(),
		newFetchCmd(),
		newMergeCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command with the process arguments.
// This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

// Run is the main entry point for the CLI application
func Run() error {
	return Execute()
}
