package model

import (
	"fmt"
	"slices"
	"sort"

	"github.com/noot-app/food-risk-scanner/internal/types"
)

// UnknownCategoryError is returned when a categorical value was never seen by
// the encoder at training time. There is no fallback bucket.
type UnknownCategoryError struct {
	Column string
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for column %s", e.Value, e.Column)
}

// LabelEncoder maps string classes to integer codes. Codes are indexes into
// the sorted class list, the same convention scikit-learn's LabelEncoder uses.
type LabelEncoder struct {
	classes []string
}

// NewLabelEncoder fits an encoder on values. Duplicates are collapsed.
func NewLabelEncoder(values []string) *LabelEncoder {
	classes := slices.Clone(values)
	sort.Strings(classes)
	return &LabelEncoder{classes: slices.Compact(classes)}
}

// Classes returns the known classes in code order
func (e *LabelEncoder) Classes() []string {
	return slices.Clone(e.classes)
}

// Len returns the number of known classes
func (e *LabelEncoder) Len() int {
	return len(e.classes)
}

// Transform returns the code for value
func (e *LabelEncoder) Transform(value string) (int, bool) {
	i, found := slices.BinarySearch(e.classes, value)
	return i, found
}

// InverseTransform returns the class for code
func (e *LabelEncoder) InverseTransform(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("class code %d out of range [0, %d)", code, len(e.classes))
	}
	return e.classes[code], nil
}

// FeatureEncoder turns a NutritionalProfile into the feature vector layout
// recorded at training time.
type FeatureEncoder struct {
	names    []string
	encoders map[string]*LabelEncoder
}

// NewFeatureEncoder validates the feature layout. Every name must be a
// profile attribute and only categorical attributes may carry an encoder.
func NewFeatureEncoder(names []string, encoders map[string]*LabelEncoder) (*FeatureEncoder, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("feature list is empty")
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !types.IsAttribute(name) {
			return nil, fmt.Errorf("feature %q is not a nutritional attribute", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("feature %q listed twice", name)
		}
		seen[name] = true

		var p types.NutritionalProfile
		_, categorical := p.Categorical(name)
		if categorical && encoders[name] == nil {
			return nil, fmt.Errorf("categorical feature %q has no encoder", name)
		}
	}
	for column := range encoders {
		if !seen[column] {
			return nil, fmt.Errorf("encoder for %q does not match any feature", column)
		}
		var p types.NutritionalProfile
		if _, categorical := p.Categorical(column); !categorical {
			return nil, fmt.Errorf("encoder given for numeric feature %q", column)
		}
	}

	return &FeatureEncoder{
		names:    slices.Clone(names),
		encoders: encoders,
	}, nil
}

// Names returns the feature names in vector order
func (f *FeatureEncoder) Names() []string {
	return slices.Clone(f.names)
}

// Encode builds the feature vector for p. Missing numeric attributes encode
// as 0; categorical values go through the training-time encoder.
func (f *FeatureEncoder) Encode(p types.NutritionalProfile) ([]float64, error) {
	vector := make([]float64, len(f.names))
	for i, name := range f.names {
		if enc, ok := f.encoders[name]; ok {
			value, _ := p.Categorical(name)
			code, found := enc.Transform(value)
			if !found {
				return nil, &UnknownCategoryError{Column: name, Value: value}
			}
			vector[i] = float64(code)
			continue
		}
		value, _ := p.Numeric(name)
		vector[i] = value
	}
	return vector, nil
}
