package query

import (
	"context"
	"log/slog"
	"os"

	"github.com/noot-app/food-risk-scanner/internal/types"
)

// MaxSearchResults caps the number of foods Search returns
const MaxSearchResults = 10

// FoodDatabase defines the read-only lookups over the known foods
type FoodDatabase interface {
	Search(query string) []types.FoodRecord
	ExactMatch(name string) (types.FoodRecord, bool)
	TopHealthy(category string, limit int) []types.FoodRecord
	Categories() []string
	Len() int
}

// Open loads the food database CSV at path.
// Uses the built-in sample foods if FOOD_DATABASE_MOCK environment variable is set
func Open(ctx context.Context, path string, logger *slog.Logger) (FoodDatabase, error) {
	if os.Getenv("FOOD_DATABASE_MOCK") == "true" {
		logger.Warn("Using sample food database", "records", len(SampleFoods()))
		return NewDatabase(SampleFoods()), nil
	}
	db, err := LoadCSV(ctx, path, logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}
