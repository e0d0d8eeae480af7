package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/noot-app/food-risk-scanner/internal/config"
	"github.com/noot-app/food-risk-scanner/internal/dataset"
	"github.com/noot-app/food-risk-scanner/internal/labelreader"
	"github.com/noot-app/food-risk-scanner/internal/model"
	"github.com/noot-app/food-risk-scanner/internal/query"
	"github.com/noot-app/food-risk-scanner/internal/scanner"
)

// Initializer builds the scanner shared by the HTTP API, the MCP server and
// the CLI
type Initializer struct {
	config *config.Config
	log    *slog.Logger

	// newExtractor is replaced in tests
	newExtractor func(ctx context.Context, cfg *config.Config) (labelreader.TextExtractor, error)
}

// NewInitializer creates a new initializer
func NewInitializer(cfg *config.Config, logger *slog.Logger) *Initializer {
	return &Initializer{
		config:       cfg,
		log:          logger,
		newExtractor: rekognitionExtractor,
	}
}

// Initialize fetches artifacts when a remote is configured, then loads the
// model, the food database and the label reader. A model or database that
// fails to load is logged and left out of the scanner; only configuration
// errors are returned.
func (si *Initializer) Initialize(ctx context.Context) (*scanner.Scanner, error) {
	start := time.Now()
	si.log.Info("Initializing scanner...")

	if si.config.IsDevelopment() {
		si.log.Warn("🚧 DEVELOPMENT MODE ENABLED 🚧",
			"environment", si.config.Environment,
			"note", "Detailed error messages will be returned to clients")
	}

	if si.config.ArtifactBaseURL != "" {
		if err := si.FetchArtifacts(ctx); err != nil {
			si.log.Error("Artifact fetch failed, using local copies", "error", err)
		}
	}

	classifier, err := model.Load(si.config.ModelDir)
	if err != nil {
		si.log.Error("Model unavailable, predictions disabled", "error", err, "model_dir", si.config.ModelDir)
	}

	db, err := query.Open(ctx, si.config.FoodDatabasePath, si.log)
	if err != nil {
		si.log.Error("Food database unavailable, lookups disabled", "error", err, "path", si.config.FoodDatabasePath)
	}

	labels, err := si.labelReader(ctx)
	if err != nil {
		return nil, err
	}

	scn := scanner.New(classifier, db, labels, si.log)
	si.log.Info("Scanner initialized",
		"model_loaded", scn.ModelLoaded(),
		"database_loaded", scn.DatabaseLoaded(),
		"label_reader", si.config.OCRBackend,
		"duration", time.Since(start))
	return scn, nil
}

// FetchArtifacts downloads the model bundle and food database from the
// configured remote
func (si *Initializer) FetchArtifacts(ctx context.Context) error {
	source, err := dataset.NewSource(ctx, si.config.ArtifactBaseURL, si.config.AWSRegion)
	if err != nil {
		return err
	}
	return dataset.NewManager(source, si.config, si.log).EnsureArtifacts(ctx)
}

func (si *Initializer) labelReader(ctx context.Context) (*labelreader.Reader, error) {
	switch si.config.OCRBackend {
	case config.OCRBackendNone, "":
		return nil, nil
	case config.OCRBackendRekognition:
		extractor, err := si.newExtractor(ctx, si.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create text extractor: %w", err)
		}
		return labelreader.NewReader(extractor, si.log), nil
	default:
		return nil, fmt.Errorf("unknown OCR backend %q", si.config.OCRBackend)
	}
}

func rekognitionExtractor(ctx context.Context, cfg *config.Config) (labelreader.TextExtractor, error) {
	return labelreader.NewRekognitionExtractorFromEnv(ctx, cfg.AWSRegion, float32(cfg.OCRMinConfidence))
}
