package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/noot-app/food-risk-scanner/internal/config"
	"github.com/noot-app/food-risk-scanner/internal/dataset"
	"github.com/noot-app/food-risk-scanner/internal/server"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the model bundle and food database, then exit",
		Long: `Download the model bundle and food database from ARTIFACT_BASE_URL
(http(s)://... or s3://bucket/prefix) into DATA_DIR.

Artifacts whose remote ETag and size match the local metadata are skipped.
A lock file keeps concurrent fetches from racing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger(config.LogModeInteractive)
			cfg := config.Load()

			if cfg.ArtifactBaseURL == "" {
				return fmt.Errorf("ARTIFACT_BASE_URL is not set")
			}

			logger.Info("🗄️  Starting artifact fetch",
				"source", cfg.ArtifactBaseURL,
				"model_dir", cfg.ModelDir,
				"food_database", cfg.FoodDatabasePath)

			if err := server.NewInitializer(cfg, logger).FetchArtifacts(cmd.Context()); err != nil {
				logger.Error("Failed to fetch artifacts", "error", err)
				return err
			}

			logger.Info("✅ Artifact fetch completed successfully",
				"model_dir", cfg.ModelDir,
				"metadata_path", cfg.MetadataPath)
			return nil
		},
	}
}

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Build the training datasets from CSV exports",
	}
	cmd.AddCommand(newMergeNHANESCmd(), newMergeCustomCmd())
	return cmd
}

func newMergeNHANESCmd() *cobra.Command {
	var dir, out string

	cmd := &cobra.Command{
		Use:   "nhanes",
		Short: "Join the NHANES survey tables on SEQN",
		Long: fmt.Sprintf(`Join the NHANES survey tables on the participant id SEQN.

Reads %s, %s, %s and %s (inner join) and %s
(left join) from --dir.`,
			dataset.DemographicFile, dataset.DietFile, dataset.ExaminationFile,
			dataset.LabsFile, dataset.MedicationsFile),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger(config.LogModeInteractive)

			if out == "" {
				out = filepath.Join(dir, dataset.NHANESMasterFile)
			}

			merger, err := dataset.NewMerger(logger)
			if err != nil {
				return err
			}
			defer merger.Close()

			rows, err := merger.MergeNHANES(cmd.Context(), dataset.DefaultNHANESInputs(dir), out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %d rows to %s\n", rows, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory holding the survey CSV files")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output CSV (default: <dir>/"+dataset.NHANESMasterFile+")")
	return cmd
}

func newMergeCustomCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "custom [csv...]",
		Short: "Stack nutrition tables by column name",
		Long: fmt.Sprintf(`Stack nutrition tables by column name; columns missing from a table are
left empty. Defaults to %s and %s in the current directory.`,
			dataset.FoodMacrosFile, dataset.FoodNutritionFile),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger(config.LogModeInteractive)

			inputs := args
			if len(inputs) == 0 {
				inputs = []string{dataset.FoodMacrosFile, dataset.FoodNutritionFile}
			}

			merger, err := dataset.NewMerger(logger)
			if err != nil {
				return err
			}
			defer merger.Close()

			rows, err := merger.MergeCustomNutrition(cmd.Context(), inputs, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %d rows to %s\n", rows, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", dataset.CustomNutritionFile, "Output CSV")
	return cmd
}
