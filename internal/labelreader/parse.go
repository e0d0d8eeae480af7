package labelreader

import (
	"regexp"
	"strconv"
	"strings"
)

// Keys of LabelReading.NutritionalData
const (
	KeyCalories             = "calories"
	KeyProtein              = "protein"
	KeyCarbohydrates        = "carbohydrates"
	KeyCarbs                = "carbs"
	KeyFat                  = "fat"
	KeySaturatedFat         = "saturated_fat"
	KeySugar                = "sugar"
	KeySodium               = "sodium"
	KeyFiber                = "fiber"
	KeyServingsPerContainer = "servings_per_container"
)

// CategoryMixed is assigned when no category keyword matches
const CategoryMixed = "Mixed"

// Per100gFactor scales per-serving values to per-100g values. Labels are
// assumed to use a 50g serving; the serving size text is not parsed.
const Per100gFactor = 2

const number = `(\d+(?:\.\d+)?)`

var nutrientPatterns = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{KeyCalories, regexp.MustCompile(`calories?\s*:?\s*(\d+)`)},
	{KeyProtein, regexp.MustCompile(`protein\s*:?\s*` + number + `\s*g`)},
	{KeyCarbohydrates, regexp.MustCompile(`carbohydrates?\s*:?\s*` + number + `\s*g`)},
	{KeyCarbs, regexp.MustCompile(`carbs?\s*:?\s*` + number + `\s*g`)},
	{KeyFat, regexp.MustCompile(`total\s*fat\s*:?\s*` + number + `\s*g`)},
	{KeySaturatedFat, regexp.MustCompile(`saturated\s*fat\s*:?\s*` + number + `\s*g`)},
	{KeySugar, regexp.MustCompile(`sugars?\s*:?\s*` + number + `\s*g`)},
	{KeySodium, regexp.MustCompile(`sodium\s*:?\s*` + number + `\s*mg`)},
	{KeyFiber, regexp.MustCompile(`dietary\s*fiber\s*:?\s*` + number + `\s*g`)},
	{KeyServingsPerContainer, regexp.MustCompile(`servings?\s*per\s*container\s*:?\s*` + number)},
}

var servingSizePattern = regexp.MustCompile(`serving\s*size\s*:?\s*([^\n]+)`)

// categoryKeywords is checked in order; the first category with a keyword
// in the text wins
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Whole Food", []string{"organic", "natural", "fresh", "whole grain", "unprocessed"}},
	{"Whole Grain", []string{"whole wheat", "brown rice", "quinoa", "oats", "whole grain"}},
	{"Lean Protein", []string{"chicken breast", "fish", "salmon", "turkey", "lean beef"}},
	{"Dairy", []string{"milk", "cheese", "yogurt", "butter", "cream"}},
	{"Fast Food", []string{"fried", "burger", "pizza", "fries", "fast food"}},
	{"Prepared Meal", []string{"frozen", "microwave", "ready to eat", "prepared"}},
}

var (
	highProcessing = []string{
		"artificial", "preservatives", "additives", "hydrogenated",
		"high fructose", "corn syrup", "modified", "processed",
	}
	lowProcessing = []string{"organic", "natural", "fresh", "whole", "unprocessed"}
)

// ParseNutrients extracts the first match of every nutrient pattern from
// text, ignoring case. The serving size is returned as written.
func ParseNutrients(text string) (nutrients map[string]float64, servingSize string) {
	lower := strings.ToLower(text)
	nutrients = make(map[string]float64)
	for _, p := range nutrientPatterns {
		m := p.pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			nutrients[p.key] = v
		}
	}
	if m := servingSizePattern.FindStringSubmatch(lower); m != nil {
		servingSize = strings.TrimSpace(m[1])
	}
	return nutrients, servingSize
}

// DetectCategory returns the first category whose keywords appear in text
func DetectCategory(text string) string {
	lower := strings.ToLower(text)
	for _, c := range categoryKeywords {
		if containsAny(lower, c.keywords) > 0 {
			return c.category
		}
	}
	return CategoryMixed
}

// EstimateProcessingLevel scores text on the 1 (raw) to 10 (ultra
// processed) scale by counting processing indicators
func EstimateProcessingLevel(text string) int {
	lower := strings.ToLower(text)
	high := containsAny(lower, highProcessing)
	low := containsAny(lower, lowProcessing)
	if low > high {
		return max(1, 10-low)
	}
	return min(10, 5+high)
}

// EstimateNutritionalDensity scores parsed nutrients on the 1 to 10 scale.
// A label with nothing parsed gets the midpoint.
func EstimateNutritionalDensity(nutrients map[string]float64, servingSize string) int {
	if len(nutrients) == 0 && servingSize == "" {
		return 5
	}

	score := 10
	if sugar, ok := nutrients[KeySugar]; ok {
		switch {
		case sugar > 15:
			score -= 3
		case sugar > 10:
			score--
		}
	}
	if sodium, ok := nutrients[KeySodium]; ok {
		switch {
		case sodium > 400:
			score -= 2
		case sodium > 200:
			score--
		}
	}
	if protein, ok := nutrients[KeyProtein]; ok && protein > 20 {
		score++
	}
	if fiber, ok := nutrients[KeyFiber]; ok && fiber > 5 {
		score++
	}
	return max(1, min(10, score))
}

// Per100g scales every nutrient amount by Per100gFactor. The container
// serving count is not an amount and is left out.
func Per100g(nutrients map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(nutrients))
	for k, v := range nutrients {
		if k == KeyServingsPerContainer {
			continue
		}
		out[k] = v * Per100gFactor
	}
	return out
}

func containsAny(text string, indicators []string) int {
	n := 0
	for _, s := range indicators {
		if strings.Contains(text, s) {
			n++
		}
	}
	return n
}
