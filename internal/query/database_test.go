package query

import (
	"testing"

	"github.com/noot-app/food-risk-scanner/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(records []types.FoodRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.FoodName)
	}
	return out
}

func TestDatabase_Search(t *testing.T) {
	db := NewDatabase(SampleFoods())

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"lowercase query", "chicken", []string{"Chicken Breast", "Grilled Chicken", "Fried Chicken Nuggets"}},
		{"mixed case query", "cHiCkEn", []string{"Chicken Breast", "Grilled Chicken", "Fried Chicken Nuggets"}},
		{"substring inside word", "ogur", []string{"Greek Yogurt"}},
		{"no match", "tofu", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, names(db.Search(tt.query)))
		})
	}
}

func TestDatabase_SearchCapsResults(t *testing.T) {
	var records []types.FoodRecord
	for _, n := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"} {
		records = append(records, types.FoodRecord{FoodName: "Rice " + n})
	}
	db := NewDatabase(records)

	results := db.Search("rice")
	require.Len(t, results, MaxSearchResults)
	assert.Equal(t, "Rice A", results[0].FoodName)
	assert.Equal(t, "Rice J", results[9].FoodName)
}

func TestDatabase_ExactMatch(t *testing.T) {
	db := NewDatabase([]types.FoodRecord{
		{FoodName: "Oats", DiseaseRisk: "first"},
		{FoodName: "OATS", DiseaseRisk: "second"},
		{FoodName: "Oat Milk"},
	})

	record, ok := db.ExactMatch("oats")
	require.True(t, ok)
	assert.Equal(t, "first", record.DiseaseRisk, "first match wins")

	_, ok = db.ExactMatch("oat")
	assert.False(t, ok, "substrings do not match exactly")
}

func TestDatabase_LookupsReturnCopies(t *testing.T) {
	db := NewDatabase(SampleFoods())

	found := db.Search("lentils")
	require.NotEmpty(t, found)
	*found[0].SugarPer100g = 99

	record, ok := db.ExactMatch("Lentils")
	require.True(t, ok)
	assert.NotEqual(t, 99.0, *record.SugarPer100g)
	*record.SugarPer100g = 98

	for _, r := range db.TopHealthy("", -1) {
		if r.FoodName == "Lentils" {
			assert.NotEqual(t, 99.0, *r.SugarPer100g)
			assert.NotEqual(t, 98.0, *r.SugarPer100g)
		}
	}

	again, _ := db.ExactMatch("Lentils")
	assert.Equal(t, *SampleFoods()[indexOf(t, "Lentils")].SugarPer100g, *again.SugarPer100g)
}

func indexOf(t *testing.T, name string) int {
	t.Helper()
	for i, r := range SampleFoods() {
		if r.FoodName == name {
			return i
		}
	}
	t.Fatalf("%s not in sample foods", name)
	return -1
}

func TestDatabase_TopHealthy(t *testing.T) {
	db := NewDatabase(SampleFoods())

	t.Run("all categories", func(t *testing.T) {
		top := db.TopHealthy("", 3)
		// Broccoli and Lentils tie on both keys and keep load order
		assert.Equal(t, []string{"Broccoli", "Lentils", "Chicken Breast"}, names(top))
	})

	t.Run("one category", func(t *testing.T) {
		top := db.TopHealthy("Dairy", 10)
		assert.Equal(t, []string{"Greek Yogurt", "Milk Chocolate"}, names(top))
	})

	t.Run("category match is exact", func(t *testing.T) {
		assert.Empty(t, db.TopHealthy("dairy", 10))
	})

	t.Run("zero limit", func(t *testing.T) {
		assert.Empty(t, db.TopHealthy("", 0))
	})
}

func TestDatabase_TopHealthyMissingValuesSortLast(t *testing.T) {
	db := NewDatabase([]types.FoodRecord{
		{FoodName: "Unknown density"},
		{FoodName: "Dense", NutritionalProfile: types.NutritionalProfile{NutritionalDensity: types.Float(4)}},
		{FoodName: "Dense processed", NutritionalProfile: types.NutritionalProfile{
			NutritionalDensity: types.Float(4),
			ProcessingLevel:    types.Float(6),
		}},
		{FoodName: "Dense raw", NutritionalProfile: types.NutritionalProfile{
			NutritionalDensity: types.Float(4),
			ProcessingLevel:    types.Float(1),
		}},
	})

	assert.Equal(t,
		[]string{"Dense raw", "Dense processed", "Dense", "Unknown density"},
		names(db.TopHealthy("", 10)))
}

func TestDatabase_Categories(t *testing.T) {
	db := NewDatabase(SampleFoods())

	categories := db.Categories()
	assert.Equal(t, []string{"Whole Food", "Dairy", "Fast Food"}, categories)

	categories[0] = "changed"
	assert.Equal(t, "Whole Food", db.Categories()[0], "callers get a copy")
	assert.Equal(t, len(SampleFoods()), db.Len())
}
