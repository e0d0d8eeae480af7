package scoring

import (
	"testing"

	"github.com/noot-app/food-risk-scanner/internal/types"
	"github.com/stretchr/testify/assert"
)

func profile(processing, density, sugar, sodium, fat, fiber, additives float64) types.NutritionalProfile {
	return types.NutritionalProfile{
		ProcessingLevel:    types.Float(processing),
		NutritionalDensity: types.Float(density),
		SugarPer100g:       types.Float(sugar),
		SodiumPer100g:      types.Float(sodium),
		FatPer100g:         types.Float(fat),
		FiberPer100g:       types.Float(fiber),
		AdditivesCount:     types.Float(additives),
	}
}

func TestScore_EveryRuleFires(t *testing.T) {
	// 25+15+15+15+10+10+10 = 110 points of deductions
	result := Score(profile(8, 3, 20, 500, 25, 1, 6))

	assert.Equal(t, 0, result.HealthScore)
	assert.Equal(t, []string{
		ConcernHighlyProcessed,
		ConcernLowDensity,
		ConcernHighSugar,
		ConcernVeryHighSodium,
		ConcernHighFat,
		ConcernLowFiber,
		ConcernManyAdditives,
	}, result.Concerns)
	assert.Equal(t, []string{
		RecommendHealthierAlternatives,
		RecommendLessProcessed,
		RecommendLessSugar,
		RecommendLessSodium,
	}, result.Recommendations)
}

func TestScore_NoRuleFires(t *testing.T) {
	result := Score(profile(2, 9, 5, 50, 5, 8, 1))

	assert.Equal(t, 100, result.HealthScore)
	assert.Empty(t, result.Concerns)
	assert.Empty(t, result.Recommendations)
	assert.NotNil(t, result.Concerns, "empty lists encode as [] not null")
}

func TestScore_TieredRules(t *testing.T) {
	tests := []struct {
		name             string
		profile          types.NutritionalProfile
		expectedScore    int
		expectedConcerns []string
	}{
		{
			name:             "moderate processing",
			profile:          types.NutritionalProfile{ProcessingLevel: types.Float(6)},
			expectedScore:    90,
			expectedConcerns: []string{ConcernModeratelyProcessed},
		},
		{
			name:             "processing boundary 7 is moderate",
			profile:          types.NutritionalProfile{ProcessingLevel: types.Float(7)},
			expectedScore:    90,
			expectedConcerns: []string{ConcernModeratelyProcessed},
		},
		{
			name:             "processing boundary 5 is not penalised",
			profile:          types.NutritionalProfile{ProcessingLevel: types.Float(5)},
			expectedScore:    100,
			expectedConcerns: []string{},
		},
		{
			name:             "moderate sugar",
			profile:          types.NutritionalProfile{SugarPer100g: types.Float(15)},
			expectedScore:    93,
			expectedConcerns: []string{ConcernModerateSugar},
		},
		{
			name:             "moderate sodium",
			profile:          types.NutritionalProfile{SodiumPer100g: types.Float(400)},
			expectedScore:    93,
			expectedConcerns: []string{ConcernModerateSodium},
		},
		{
			name:             "density boundary 5 is fine",
			profile:          types.NutritionalProfile{NutritionalDensity: types.Float(5)},
			expectedScore:    100,
			expectedConcerns: []string{},
		},
		{
			name:             "fiber boundary 3 is fine",
			profile:          types.NutritionalProfile{FiberPer100g: types.Float(3)},
			expectedScore:    100,
			expectedConcerns: []string{},
		},
		{
			name:             "explicit zero fiber is penalised",
			profile:          types.NutritionalProfile{FiberPer100g: types.Float(0)},
			expectedScore:    90,
			expectedConcerns: []string{ConcernLowFiber},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.profile)
			assert.Equal(t, tt.expectedScore, result.HealthScore)
			assert.Equal(t, tt.expectedConcerns, result.Concerns)
		})
	}
}

func TestScore_EmptyProfileUsesDefaults(t *testing.T) {
	// density and fiber default to 10, everything else to 0
	result := Score(types.NutritionalProfile{})

	assert.Equal(t, 100, result.HealthScore)
	assert.Empty(t, result.Concerns)
}

func TestScore_RecommendationsUseUnclampedScore(t *testing.T) {
	// 25 + 15 + 15 = 55 deducted, score 45
	result := Score(types.NutritionalProfile{
		ProcessingLevel:    types.Float(9),
		NutritionalDensity: types.Float(2),
		SugarPer100g:       types.Float(30),
	})

	assert.Equal(t, 45, result.HealthScore)
	assert.Equal(t, []string{
		RecommendHealthierAlternatives,
		RecommendLessProcessed,
		RecommendLessSugar,
	}, result.Recommendations)
}

func TestScore_IsPureAndBounded(t *testing.T) {
	levels := []float64{1, 5, 6, 8, 10}
	amounts := []float64{0, 10.5, 15, 16, 250, 401, 1000}

	for _, processing := range levels {
		for _, amount := range amounts {
			p := profile(processing, 11-processing, amount, amount, amount, amount/100, processing)

			first := Score(p)
			second := Score(p)

			assert.Equal(t, first, second, "score must be deterministic")
			assert.GreaterOrEqual(t, first.HealthScore, 0)
			assert.LessOrEqual(t, first.HealthScore, 100)
		}
	}
}
