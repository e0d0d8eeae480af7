package types

// Attribute names as they appear in the food database CSV, in JSON bodies
// and in the feature list recorded by the training run.
const (
	FieldFoodName           = "Food_Name"
	FieldFoodCategory       = "Food_Category"
	FieldCalories           = "Calories_per_100g"
	FieldProtein            = "Protein_per_100g"
	FieldCarbs              = "Carbs_per_100g"
	FieldFat                = "Fat_per_100g"
	FieldFiber              = "Fiber_per_100g"
	FieldSugar              = "Sugar_per_100g"
	FieldSodium             = "Sodium_per_100g"
	FieldProcessingLevel    = "Processing_Level"
	FieldNutritionalDensity = "Nutritional_Density"
	FieldGlycemicIndex      = "Glycemic_Index"
	FieldAdditivesCount     = "Additives_Count"
	FieldDiseaseRisk        = "Disease_Risk"
)

// NumericFields lists every numeric profile attribute in canonical order.
var NumericFields = []string{
	FieldCalories,
	FieldProtein,
	FieldCarbs,
	FieldFat,
	FieldFiber,
	FieldSugar,
	FieldSodium,
	FieldProcessingLevel,
	FieldNutritionalDensity,
	FieldGlycemicIndex,
	FieldAdditivesCount,
}

// NutritionalProfile is the fixed-schema set of nutritional attributes of a
// food. A nil numeric field means the value was not supplied.
type NutritionalProfile struct {
	FoodCategory       string   `json:"Food_Category,omitempty"`
	CaloriesPer100g    *float64 `json:"Calories_per_100g,omitempty"`
	ProteinPer100g     *float64 `json:"Protein_per_100g,omitempty"`
	CarbsPer100g       *float64 `json:"Carbs_per_100g,omitempty"`
	FatPer100g         *float64 `json:"Fat_per_100g,omitempty"`
	FiberPer100g       *float64 `json:"Fiber_per_100g,omitempty"`
	SugarPer100g       *float64 `json:"Sugar_per_100g,omitempty"`
	SodiumPer100g      *float64 `json:"Sodium_per_100g,omitempty"`
	ProcessingLevel    *float64 `json:"Processing_Level,omitempty"`
	NutritionalDensity *float64 `json:"Nutritional_Density,omitempty"`
	GlycemicIndex      *float64 `json:"Glycemic_Index,omitempty"`
	AdditivesCount     *float64 `json:"Additives_Count,omitempty"`
}

// FoodRecord is a named food with its nutritional profile, as stored in the
// food database. DiseaseRisk is the label the record carried at training
// time and is informative only.
type FoodRecord struct {
	FoodName string `json:"Food_Name"`
	NutritionalProfile
	DiseaseRisk string `json:"Disease_Risk,omitempty"`
}

// FoodSummary is the lean record returned by food searches
type FoodSummary struct {
	FoodName        string  `json:"Food_Name"`
	FoodCategory    string  `json:"Food_Category"`
	CaloriesPer100g float64 `json:"Calories_per_100g"`
}

// HealthAnalysis is the output of the rule-based health scoring.
type HealthAnalysis struct {
	HealthScore     int      `json:"health_score"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}

// AnalysisResult combines the classifier prediction with the health analysis
type AnalysisResult struct {
	FoodName            string             `json:"food_name"`
	PredictedDisease    string             `json:"predicted_disease"`
	Confidence          float64            `json:"confidence"`
	AllProbabilities    map[string]float64 `json:"all_probabilities"`
	NutritionalAnalysis HealthAnalysis     `json:"nutritional_analysis"`
}

// Clone returns a copy of p that shares no numeric values with it
func (p NutritionalProfile) Clone() NutritionalProfile {
	out := p
	for _, name := range NumericFields {
		field, _ := out.Field(name)
		if *field != nil {
			*field = Float(**field)
		}
	}
	return out
}

// Clone returns a deep copy of r
func (r FoodRecord) Clone() FoodRecord {
	r.NutritionalProfile = r.NutritionalProfile.Clone()
	return r
}

// ToSummary converts a full FoodRecord to a FoodSummary
func (r *FoodRecord) ToSummary() FoodSummary {
	return FoodSummary{
		FoodName:        r.FoodName,
		FoodCategory:    r.FoodCategory,
		CaloriesPer100g: ValueOr(r.CaloriesPer100g, 0),
	}
}

// Field returns a pointer to the numeric field called name. ok is false when
// name is not a numeric profile attribute.
func (p *NutritionalProfile) Field(name string) (field **float64, ok bool) {
	switch name {
	case FieldCalories:
		return &p.CaloriesPer100g, true
	case FieldProtein:
		return &p.ProteinPer100g, true
	case FieldCarbs:
		return &p.CarbsPer100g, true
	case FieldFat:
		return &p.FatPer100g, true
	case FieldFiber:
		return &p.FiberPer100g, true
	case FieldSugar:
		return &p.SugarPer100g, true
	case FieldSodium:
		return &p.SodiumPer100g, true
	case FieldProcessingLevel:
		return &p.ProcessingLevel, true
	case FieldNutritionalDensity:
		return &p.NutritionalDensity, true
	case FieldGlycemicIndex:
		return &p.GlycemicIndex, true
	case FieldAdditivesCount:
		return &p.AdditivesCount, true
	}
	return nil, false
}

// Numeric returns the value of a numeric attribute. present is false when the
// attribute is unknown or was not supplied.
func (p *NutritionalProfile) Numeric(name string) (value float64, present bool) {
	field, ok := p.Field(name)
	if !ok || *field == nil {
		return 0, false
	}
	return **field, true
}

// Categorical returns the value of a categorical attribute.
func (p *NutritionalProfile) Categorical(name string) (string, bool) {
	if name == FieldFoodCategory {
		return p.FoodCategory, true
	}
	return "", false
}

// IsAttribute reports whether name is a profile attribute
func IsAttribute(name string) bool {
	if name == FieldFoodCategory {
		return true
	}
	var p NutritionalProfile
	_, ok := p.Field(name)
	return ok
}

// ValueOr dereferences v, falling back to def when v is nil
func ValueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
