// Package model loads the disease-risk classifier trained offline and runs
// inference on nutritional profiles.
package model

import (
	"fmt"
	"slices"

	"github.com/noot-app/food-risk-scanner/internal/types"
)

// ModelLoadError reports missing or malformed model artifacts
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load model: %v", e.Err)
	}
	return fmt.Sprintf("failed to load model from %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// Prediction is the classifier output for one profile
type Prediction struct {
	Label         string
	Probabilities map[string]float64
	Confidence    float64
}

// Classifier wraps the booster with its feature encoder and label decoder.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	encoder *FeatureEncoder
	decoder *LabelEncoder
	booster *TreeEnsemble
}

// Load reads the bundle in dir and builds a Classifier. Every failure is a
// *ModelLoadError.
func Load(dir string) (*Classifier, error) {
	bundle, err := LoadBundle(dir)
	if err != nil {
		return nil, err
	}
	c, err := NewClassifier(bundle)
	if err != nil {
		return nil, &ModelLoadError{Path: dir, Err: err}
	}
	return c, nil
}

// NewClassifier validates a bundle and compiles its booster
func NewClassifier(b *Bundle) (*Classifier, error) {
	m := b.Manifest

	// Codes are positions in the stored class lists, so those lists must
	// already be in encoder order.
	encoders := make(map[string]*LabelEncoder, len(m.FeatureEncoders))
	for column, classes := range m.FeatureEncoders {
		enc := NewLabelEncoder(classes)
		if !slices.Equal(enc.classes, classes) {
			return nil, fmt.Errorf("encoder classes for %q must be unique and sorted", column)
		}
		encoders[column] = enc
	}
	encoder, err := NewFeatureEncoder(m.FeatureNames, encoders)
	if err != nil {
		return nil, err
	}

	decoder := NewLabelEncoder(m.Classes)
	if !slices.Equal(decoder.classes, m.Classes) {
		return nil, fmt.Errorf("class labels must be unique and sorted")
	}

	booster, err := NewTreeEnsemble(b.Trees, m.Booster, m.FeatureNames)
	if err != nil {
		return nil, err
	}
	if booster.NumClass() != decoder.Len() {
		return nil, fmt.Errorf("booster has %d classes but decoder has %d", booster.NumClass(), decoder.Len())
	}

	return &Classifier{encoder: encoder, decoder: decoder, booster: booster}, nil
}

// Classes returns the disease-risk labels the model can predict
func (c *Classifier) Classes() []string {
	return c.decoder.Classes()
}

// FeatureNames returns the training-time feature order
func (c *Classifier) FeatureNames() []string {
	return c.encoder.Names()
}

// Predict encodes p and returns the most likely label with the full
// distribution. An unseen categorical value returns *UnknownCategoryError.
func (c *Classifier) Predict(p types.NutritionalProfile) (*Prediction, error) {
	features, err := c.encoder.Encode(p)
	if err != nil {
		return nil, err
	}

	proba, err := c.booster.PredictProba(features)
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}

	// argmax, lowest index wins ties
	best := 0
	for i, v := range proba {
		if v > proba[best] {
			best = i
		}
	}

	label, err := c.decoder.InverseTransform(best)
	if err != nil {
		return nil, err
	}

	probabilities := make(map[string]float64, len(proba))
	for i, v := range proba {
		class, _ := c.decoder.InverseTransform(i)
		probabilities[class] = v
	}

	return &Prediction{
		Label:         label,
		Probabilities: probabilities,
		Confidence:    proba[best],
	}, nil
}
