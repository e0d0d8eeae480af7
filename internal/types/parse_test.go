package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNutritionalData(t *testing.T) {
	t.Run("valid profile with name", func(t *testing.T) {
		body := `{
			"Food_Name": "Oat Bar",
			"Food_Category": "Whole Grain",
			"Calories_per_100g": 410,
			"Sugar_per_100g": 18.5,
			"Processing_Level": 6,
			"Additives_Count": 2
		}`

		record, err := ParseNutritionalData([]byte(body))
		require.NoError(t, err)
		require.NotNil(t, record)

		assert.Equal(t, "Oat Bar", record.FoodName)
		assert.Equal(t, "Whole Grain", record.FoodCategory)
		assert.Equal(t, 18.5, *record.SugarPer100g)
		assert.Equal(t, 6.0, *record.ProcessingLevel)
		assert.Nil(t, record.SodiumPer100g)
	})

	t.Run("null and empty mean no data", func(t *testing.T) {
		for _, body := range []string{"", "  ", "null"} {
			record, err := ParseNutritionalData([]byte(body))
			assert.NoError(t, err)
			assert.Nil(t, record)
		}
	})

	t.Run("whole numbers written as floats are accepted", func(t *testing.T) {
		record, err := ParseNutritionalData([]byte(`{"Processing_Level": 8.0}`))
		require.NoError(t, err)
		assert.Equal(t, 8.0, *record.ProcessingLevel)
	})
}

func TestParseNutritionalData_Rejects(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		expectedField string
	}{
		{"unknown field", `{"Vitamin_C": 10}`, "Vitamin_C"},
		{"wrong type", `{"Sugar_per_100g": "lots"}`, "Sugar_per_100g"},
		{"processing level too high", `{"Processing_Level": 11}`, FieldProcessingLevel},
		{"processing level too low", `{"Processing_Level": 0}`, FieldProcessingLevel},
		{"density fractional", `{"Nutritional_Density": 4.5}`, FieldNutritionalDensity},
		{"glycemic index out of range", `{"Glycemic_Index": 120}`, FieldGlycemicIndex},
		{"negative additives", `{"Additives_Count": -1}`, FieldAdditivesCount},
		{"negative sodium", `{"Sodium_per_100g": -5}`, FieldSodium},
		{"not an object", `[1, 2]`, ""},
		{"trailing data", `{"Fat_per_100g": 1} {}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseNutritionalData([]byte(tt.body))
			require.Error(t, err)
			assert.Nil(t, record)

			var profileErr *ProfileError
			require.True(t, errors.As(err, &profileErr), "expected ProfileError, got %T", err)
			assert.Equal(t, tt.expectedField, profileErr.Field)
		})
	}
}
