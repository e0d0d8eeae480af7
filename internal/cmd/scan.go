package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/noot-app/food-risk-scanner/internal/cli"
	"github.com/noot-app/food-risk-scanner/internal/config"
	"github.com/noot-app/food-risk-scanner/internal/labelreader"
	"github.com/noot-app/food-risk-scanner/internal/scanner"
	"github.com/noot-app/food-risk-scanner/internal/server"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Interactive food analysis menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger(config.LogModeInteractive)
			cfg := config.Load()

			scn, err := server.NewInitializer(cfg, logger).Initialize(cmd.Context())
			if err != nil {
				return err
			}
			if !scn.ModelLoaded() {
				return fmt.Errorf("cannot start scanner: %w", scanner.ErrModelUnavailable)
			}

			return cli.NewMenu(scn, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
}

func newLabelCmd() *cobra.Command {
	var fromText, asJSON bool

	cmd := &cobra.Command{
		Use:   "label <image>",
		Short: "Read a nutrition label photo and analyze it",
		Long: `Read a nutrition label photo and analyze the food it describes.

The photo is cleaned up and sent to the configured OCR backend
(OCR_BACKEND=rekognition). With --text the argument is a file holding label
text that was already extracted, and no OCR backend is needed.

Per-100g values are approximated by doubling the per-serving values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger(config.LogModeInteractive)
			cfg := config.Load()

			scn, err := server.NewInitializer(cfg, logger).Initialize(cmd.Context())
			if err != nil {
				return err
			}

			var analysis *scanner.LabelAnalysis
			if fromText {
				text, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read label text: %w", err)
				}
				reading, err := labelreader.ReadText(string(text))
				if err != nil {
					return err
				}
				analysis, err = scn.AnalyzeReading(reading)
				if err != nil {
					return err
				}
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open label image: %w", err)
				}
				defer f.Close()

				analysis, err = scn.AnalyzeLabel(cmd.Context(), f)
				if err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(analysis)
			}
			printReading(cmd.OutOrStdout(), analysis.LabelReading)
			cli.PrintAnalysis(cmd.OutOrStdout(), analysis.HealthAnalysis)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromText, "text", false, "Treat the argument as already-extracted label text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the reading and analysis as JSON")
	return cmd
}

func printReading(w io.Writer, r *labelreader.LabelReading) {
	fmt.Fprintf(w, "\n🏷️  Label reading\n")
	fmt.Fprintf(w, "Category: %s\n", r.FoodCategory)
	fmt.Fprintf(w, "Processing Level: %d/10\n", r.ProcessingLevel)
	fmt.Fprintf(w, "Nutritional Density: %d/10\n", r.NutritionalDensity)
	if r.ServingSize != "" {
		fmt.Fprintf(w, "Serving Size: %s\n", r.ServingSize)
	}

	if len(r.NutritionalData) == 0 {
		fmt.Fprintf(w, "No nutrients recognized\n")
		return
	}
	fmt.Fprintf(w, "Nutrients (per serving, per 100g approx.):\n")
	keys := make([]string, 0, len(r.NutritionalData))
	for k := range r.NutritionalData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "   %s: %g, %g\n", k, r.NutritionalData[k], r.Per100gData[k])
	}
}
