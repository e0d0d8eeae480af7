package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFile is the name of the manifest inside a model directory
const ManifestFile = "manifest.json"

// BoosterFormatTreeDump is the only booster format this package evaluates
const BoosterFormatTreeDump = "xgboost-json-dump"

// BoosterSpec describes the serialized booster
type BoosterSpec struct {
	Format    string  `json:"format"`
	File      string  `json:"file"`
	Objective string  `json:"objective"`
	NumClass  int     `json:"num_class"`
	BaseScore float64 `json:"base_score,omitempty"`
}

// Manifest records everything the training run produced besides the trees:
// the ordered feature names, the per-column categorical encoders and the
// output-label decoder.
type Manifest struct {
	FeatureNames    []string            `json:"feature_names"`
	FeatureEncoders map[string][]string `json:"feature_encoders"`
	Classes         []string            `json:"classes"`
	Booster         BoosterSpec         `json:"booster"`
}

// Bundle is the full set of model artifacts as stored on disk
type Bundle struct {
	Manifest Manifest
	Trees    []*TreeNode
}

// LoadBundle reads the manifest and booster file from dir
func LoadBundle(dir string) (*Bundle, error) {
	manifestPath := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ModelLoadError{Path: manifestPath, Err: err}
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, &ModelLoadError{Path: manifestPath, Err: fmt.Errorf("malformed manifest: %w", err)}
	}

	if manifest.Booster.Format != BoosterFormatTreeDump {
		return nil, &ModelLoadError{Path: manifestPath, Err: fmt.Errorf("unsupported booster format %q", manifest.Booster.Format)}
	}
	if manifest.Booster.File == "" || filepath.Base(manifest.Booster.File) != manifest.Booster.File {
		return nil, &ModelLoadError{Path: manifestPath, Err: fmt.Errorf("invalid booster file name %q", manifest.Booster.File)}
	}

	boosterPath := filepath.Join(dir, manifest.Booster.File)
	data, err = os.ReadFile(boosterPath)
	if err != nil {
		return nil, &ModelLoadError{Path: boosterPath, Err: err}
	}

	var trees []*TreeNode
	if err := json.Unmarshal(data, &trees); err != nil {
		return nil, &ModelLoadError{Path: boosterPath, Err: fmt.Errorf("malformed tree dump: %w", err)}
	}

	return &Bundle{Manifest: manifest, Trees: trees}, nil
}

// SaveBundle writes the manifest and booster file into dir
func SaveBundle(dir string, b *Bundle) error {
	if b.Manifest.Booster.File == "" {
		return fmt.Errorf("booster file name is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	manifest, err := json.MarshalIndent(b.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	trees, err := json.Marshal(b.Trees)
	if err != nil {
		return fmt.Errorf("failed to marshal trees: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, b.Manifest.Booster.File), trees, 0644); err != nil {
		return fmt.Errorf("failed to write booster: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), manifest, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
