// Package scoring implements the rule-based health score that accompanies
// every classifier prediction.
package scoring

import "github.com/noot-app/food-risk-scanner/internal/types"

const baselineScore = 100

// Concerns, in the order the rules are applied
const (
	ConcernHighlyProcessed     = "Highly processed food"
	ConcernModeratelyProcessed = "Moderately processed food"
	ConcernLowDensity          = "Low nutritional density"
	ConcernHighSugar           = "High sugar content"
	ConcernModerateSugar       = "Moderate sugar content"
	ConcernVeryHighSodium      = "Very high sodium content"
	ConcernModerateSodium      = "Moderate sodium content"
	ConcernHighFat             = "High fat content"
	ConcernLowFiber            = "Low fiber content"
	ConcernManyAdditives       = "Contains many additives"
)

// Recommendations, in the order they are appended
const (
	RecommendHealthierAlternatives = "Consider healthier alternatives with less processing and additives."
	RecommendLessProcessed         = "Choose less processed foods."
	RecommendLessSugar             = "Reduce sugar intake."
	RecommendLessSodium            = "Reduce sodium intake."
)

// Score converts a nutritional profile into a 0-100 health score with the
// concerns that lowered it and matching recommendations. Absent attributes
// default to 0, except Nutritional_Density and Fiber_per_100g which default
// to 10 so that missing data is not penalised.
func Score(p types.NutritionalProfile) types.HealthAnalysis {
	processing := types.ValueOr(p.ProcessingLevel, 0)
	density := types.ValueOr(p.NutritionalDensity, 10)
	sugar := types.ValueOr(p.SugarPer100g, 0)
	sodium := types.ValueOr(p.SodiumPer100g, 0)
	fat := types.ValueOr(p.FatPer100g, 0)
	fiber := types.ValueOr(p.FiberPer100g, 10)
	additives := types.ValueOr(p.AdditivesCount, 0)

	score := baselineScore
	concerns := []string{}
	deduct := func(points int, concern string) {
		score -= points
		concerns = append(concerns, concern)
	}

	switch {
	case processing > 7:
		deduct(25, ConcernHighlyProcessed)
	case processing > 5:
		deduct(10, ConcernModeratelyProcessed)
	}

	if density < 5 {
		deduct(15, ConcernLowDensity)
	}

	switch {
	case sugar > 15:
		deduct(15, ConcernHighSugar)
	case sugar > 10:
		deduct(7, ConcernModerateSugar)
	}

	switch {
	case sodium > 400:
		deduct(15, ConcernVeryHighSodium)
	case sodium > 200:
		deduct(7, ConcernModerateSodium)
	}

	if fat > 20 {
		deduct(10, ConcernHighFat)
	}
	if fiber < 3 {
		deduct(10, ConcernLowFiber)
	}
	if additives > 5 {
		deduct(10, ConcernManyAdditives)
	}

	// Recommendations look at the unclamped score
	recommendations := []string{}
	if score < 50 {
		recommendations = append(recommendations, RecommendHealthierAlternatives)
	}
	if processing > 5 {
		recommendations = append(recommendations, RecommendLessProcessed)
	}
	if sugar > 10 {
		recommendations = append(recommendations, RecommendLessSugar)
	}
	if sodium > 200 {
		recommendations = append(recommendations, RecommendLessSodium)
	}

	return types.HealthAnalysis{
		HealthScore:     max(0, score),
		Concerns:        concerns,
		Recommendations: recommendations,
	}
}
