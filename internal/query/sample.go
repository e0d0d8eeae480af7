package query

import "github.com/noot-app/food-risk-scanner/internal/types"

type sampleFood struct {
	name, category, risk                                string
	calories, protein, carbs, fat, fiber, sugar, sodium float64
	processing, density, glycemic, additives            float64
}

var sampleFoods = []sampleFood{
	{"Chicken Breast", "Whole Food", "Low Risk", 165, 31, 0, 3.6, 0, 0, 74, 2, 8, 0, 0},
	{"Grilled Chicken", "Whole Food", "Low Risk", 190, 29, 0, 7.5, 0, 0, 390, 3, 8, 0, 1},
	{"Greek Yogurt", "Dairy", "Low Risk", 59, 10, 3.6, 0.4, 0, 3.2, 36, 3, 7, 11, 0},
	{"Cheeseburger", "Fast Food", "Heart Disease", 303, 15, 30, 14, 1.3, 6, 580, 8, 3, 66, 7},
	{"Broccoli", "Whole Food", "Low Risk", 34, 2.8, 7, 0.4, 2.6, 1.7, 33, 1, 10, 15, 0},
	{"Milk Chocolate", "Dairy", "Diabetes", 535, 7.7, 59, 30, 3.4, 52, 79, 7, 3, 45, 4},
	{"Fried Chicken Nuggets", "Fast Food", "Heart Disease", 296, 15, 18, 18, 0.9, 0.5, 600, 9, 2, 46, 9},
	{"Lentils", "Whole Food", "Low Risk", 116, 9, 20, 0.4, 7.9, 1.8, 2, 1, 10, 32, 0},
}

// SampleFoods returns a small fixed food table for tests and local
// development. Its categories match the sample classifier's encoder.
func SampleFoods() []types.FoodRecord {
	records := make([]types.FoodRecord, 0, len(sampleFoods))
	for _, f := range sampleFoods {
		records = append(records, types.FoodRecord{
			FoodName: f.name,
			NutritionalProfile: types.NutritionalProfile{
				FoodCategory:       f.category,
				CaloriesPer100g:    types.Float(f.calories),
				ProteinPer100g:     types.Float(f.protein),
				CarbsPer100g:       types.Float(f.carbs),
				FatPer100g:         types.Float(f.fat),
				FiberPer100g:       types.Float(f.fiber),
				SugarPer100g:       types.Float(f.sugar),
				SodiumPer100g:      types.Float(f.sodium),
				ProcessingLevel:    types.Float(f.processing),
				NutritionalDensity: types.Float(f.density),
				GlycemicIndex:      types.Float(f.glycemic),
				AdditivesCount:     types.Float(f.additives),
			},
			DiseaseRisk: f.risk,
		})
	}
	return records
}
