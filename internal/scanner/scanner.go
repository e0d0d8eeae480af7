// Package scanner composes the classifier, the food database and the label
// reader into the operations exposed by the HTTP API, the MCP server and the
// interactive CLI.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/noot-app/food-risk-scanner/internal/labelreader"
	"github.com/noot-app/food-risk-scanner/internal/model"
	"github.com/noot-app/food-risk-scanner/internal/query"
	"github.com/noot-app/food-risk-scanner/internal/scoring"
	"github.com/noot-app/food-risk-scanner/internal/types"
)

var (
	// ErrNoDataProvided means the request named no known food and carried no
	// nutritional data
	ErrNoDataProvided = errors.New("no nutritional data provided")
	// ErrModelUnavailable means the classifier failed to load at startup
	ErrModelUnavailable = errors.New("model not loaded")
	// ErrDatabaseUnavailable means the food database failed to load at startup
	ErrDatabaseUnavailable = errors.New("food database not loaded")
	// ErrLabelReaderUnavailable means no text extractor is configured
	ErrLabelReaderUnavailable = errors.New("label reader not configured")
)

// UnknownFoodName is reported when neither the request nor its data names the food
const UnknownFoodName = "Unknown"

// DefaultHealthyLimit is the number of foods TopHealthy returns when the
// caller does not choose
const DefaultHealthyLimit = 10

// AnalyzeRequest names a food, supplies its data, or both. A name found in
// the database takes precedence over the supplied data.
type AnalyzeRequest struct {
	FoodName string
	Data     *types.FoodRecord
}

// LabelAnalysis is a label reading together with the analysis of the food
// it describes
type LabelAnalysis struct {
	LabelReading   *labelreader.LabelReading `json:"label_reading"`
	HealthAnalysis *types.AnalysisResult     `json:"health_analysis"`
}

// Scanner is the read-only application context. Any of its parts may be
// missing when it failed to load; operations needing a missing part return
// the matching Err*Unavailable error.
type Scanner struct {
	classifier *model.Classifier
	db         query.FoodDatabase
	labels     *labelreader.Reader
	log        *slog.Logger
}

// New creates a scanner. Pass nil for any part that is not available.
func New(classifier *model.Classifier, db query.FoodDatabase, labels *labelreader.Reader, logger *slog.Logger) *Scanner {
	return &Scanner{
		classifier: classifier,
		db:         db,
		labels:     labels,
		log:        logger,
	}
}

// ModelLoaded reports whether predictions are available
func (s *Scanner) ModelLoaded() bool {
	return s.classifier != nil
}

// DatabaseLoaded reports whether food lookups are available
func (s *Scanner) DatabaseLoaded() bool {
	return s.db != nil
}

// LabelReaderEnabled reports whether label images can be read
func (s *Scanner) LabelReaderEnabled() bool {
	return s.labels != nil
}

// Search finds foods by case-insensitive name substring
func (s *Scanner) Search(query string) ([]types.FoodRecord, error) {
	if s.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	return s.db.Search(query), nil
}

// Categories lists the food categories in the database
func (s *Scanner) Categories() ([]string, error) {
	if s.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	return s.db.Categories(), nil
}

// TopHealthy ranks the healthiest foods, optionally within one category.
// A non-positive limit uses DefaultHealthyLimit.
func (s *Scanner) TopHealthy(category string, limit int) ([]types.FoodRecord, error) {
	if s.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	if limit <= 0 {
		limit = DefaultHealthyLimit
	}
	return s.db.TopHealthy(category, limit), nil
}

// AnalyzeFood predicts the disease risk of a food and scores its profile
func (s *Scanner) AnalyzeFood(req AnalyzeRequest) (*types.AnalysisResult, error) {
	start := time.Now()

	data := req.Data
	if req.FoodName != "" && s.db != nil {
		if record, ok := s.db.ExactMatch(req.FoodName); ok {
			data = &record
		}
	}
	if data == nil {
		if req.FoodName != "" && s.db == nil {
			return nil, ErrDatabaseUnavailable
		}
		return nil, ErrNoDataProvided
	}
	if s.classifier == nil {
		return nil, ErrModelUnavailable
	}

	name := req.FoodName
	if name == "" {
		name = data.FoodName
	}
	if name == "" {
		name = UnknownFoodName
	}

	result, err := s.analyze(name, data.NutritionalProfile)
	if err != nil {
		s.log.Warn("Analysis failed", "food_name", name, "error", err)
		return nil, err
	}

	s.log.Info("Food analyzed",
		"food_name", name,
		"predicted_disease", result.PredictedDisease,
		"health_score", result.NutritionalAnalysis.HealthScore,
		"duration", time.Since(start))
	return result, nil
}

// AnalyzeLabel reads a label photo and analyzes the food it describes
func (s *Scanner) AnalyzeLabel(ctx context.Context, image io.Reader) (*LabelAnalysis, error) {
	if s.labels == nil {
		return nil, ErrLabelReaderUnavailable
	}
	if s.classifier == nil {
		return nil, ErrModelUnavailable
	}

	reading, err := s.labels.Read(ctx, image)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeReading(reading)
}

// AnalyzeReading analyzes the food described by a label reading that was
// already extracted
func (s *Scanner) AnalyzeReading(reading *labelreader.LabelReading) (*LabelAnalysis, error) {
	if s.classifier == nil {
		return nil, ErrModelUnavailable
	}

	result, err := s.analyze(UnknownFoodName, reading.Profile())
	if err != nil {
		return nil, fmt.Errorf("failed to analyze label: %w", err)
	}
	return &LabelAnalysis{LabelReading: reading, HealthAnalysis: result}, nil
}

func (s *Scanner) analyze(name string, profile types.NutritionalProfile) (*types.AnalysisResult, error) {
	prediction, err := s.classifier.Predict(profile)
	if err != nil {
		return nil, err
	}
	return &types.AnalysisResult{
		FoodName:            name,
		PredictedDisease:    prediction.Label,
		Confidence:          prediction.Confidence,
		AllProbabilities:    prediction.Probabilities,
		NutritionalAnalysis: scoring.Score(profile),
	}, nil
}
