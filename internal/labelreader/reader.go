// Package labelreader reads nutrition facts from photos of food labels:
// image cleanup, OCR through a pluggable extractor and keyword heuristics
// for the attributes a label does not state.
package labelreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/noot-app/food-risk-scanner/internal/types"
)

var (
	// ErrNoTextExtracted is returned when the extractor finds no text in the image
	ErrNoTextExtracted = errors.New("no text found in image")
	// ErrInvalidImage is returned when the upload cannot be decoded as an image
	ErrInvalidImage = errors.New("invalid image")
)

// LabelReading is everything read or estimated from one label
type LabelReading struct {
	ExtractedText   string             `json:"extracted_text"`
	NutritionalData map[string]float64 `json:"nutritional_data"`
	ServingSize     string             `json:"serving_size,omitempty"`
	// Per100gData is the per-serving data scaled by Per100gFactor, an
	// approximation flagged by Per100gApproximate.
	Per100gData        map[string]float64 `json:"per_100g_data"`
	Per100gApproximate bool               `json:"per_100g_approximate"`
	FoodCategory       string             `json:"food_category"`
	ProcessingLevel    int                `json:"processing_level"`
	NutritionalDensity int                `json:"nutritional_density"`
}

// Profile converts the reading into a profile the classifier and scorer
// accept. Nutrient amounts are the values printed on the label; the
// approximate per-100g figures are not used.
func (l *LabelReading) Profile() types.NutritionalProfile {
	p := types.NutritionalProfile{
		FoodCategory:       l.FoodCategory,
		ProcessingLevel:    types.Float(float64(l.ProcessingLevel)),
		NutritionalDensity: types.Float(float64(l.NutritionalDensity)),
	}

	lookup := func(keys ...string) *float64 {
		for _, k := range keys {
			if v, ok := l.NutritionalData[k]; ok {
				return types.Float(v)
			}
		}
		return nil
	}
	p.CaloriesPer100g = lookup(KeyCalories)
	p.ProteinPer100g = lookup(KeyProtein)
	p.CarbsPer100g = lookup(KeyCarbohydrates, KeyCarbs)
	p.FatPer100g = lookup(KeyFat)
	p.FiberPer100g = lookup(KeyFiber)
	p.SugarPer100g = lookup(KeySugar)
	p.SodiumPer100g = lookup(KeySodium)
	return p
}

// Reader runs the full label pipeline
type Reader struct {
	extractor TextExtractor
	log       *slog.Logger
}

// NewReader creates a label reader backed by extractor
func NewReader(extractor TextExtractor, logger *slog.Logger) *Reader {
	return &Reader{extractor: extractor, log: logger}
}

// Read preprocesses the image, extracts its text and parses it
func (r *Reader) Read(ctx context.Context, image io.Reader) (*LabelReading, error) {
	start := time.Now()

	processed, err := Preprocess(image)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodePNG(processed)
	if err != nil {
		return nil, err
	}

	text, err := r.extractor.ExtractText(ctx, encoded)
	if err != nil {
		r.log.Error("Text extraction failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}

	reading, err := ReadText(text)
	if err != nil {
		r.log.Warn("Label has no readable text",
			"width", processed.Rect.Dx(),
			"height", processed.Rect.Dy(),
			"duration", time.Since(start))
		return nil, err
	}

	r.log.Info("Label read",
		"category", reading.FoodCategory,
		"nutrients", len(reading.NutritionalData),
		"duration", time.Since(start))
	return reading, nil
}

// ReadText parses label text that was already extracted
func ReadText(text string) (*LabelReading, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoTextExtracted
	}

	nutrients, servingSize := ParseNutrients(text)
	return &LabelReading{
		ExtractedText:      text,
		NutritionalData:    nutrients,
		ServingSize:        servingSize,
		Per100gData:        Per100g(nutrients),
		Per100gApproximate: true,
		FoodCategory:       DetectCategory(text),
		ProcessingLevel:    EstimateProcessingLevel(text),
		NutritionalDensity: EstimateNutritionalDensity(nutrients, servingSize),
	}, nil
}
