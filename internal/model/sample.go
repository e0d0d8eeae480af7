package model

import "github.com/noot-app/food-risk-scanner/internal/types"

func leaf(id int, v float64) *TreeNode {
	return &TreeNode{NodeID: id, Leaf: &v}
}

func stump(feature string, threshold, below, above float64) *TreeNode {
	return &TreeNode{
		NodeID:         0,
		Split:          feature,
		SplitCondition: threshold,
		Yes:            1,
		No:             2,
		Missing:        1,
		Children:       []*TreeNode{leaf(1, below), leaf(2, above)},
	}
}

// NewSampleBundle returns a small three-class model used by tests and local
// development. One boosting round of stumps:
//   - Diabetes rises with Sugar_per_100g >= 15
//   - Heart Disease rises with Processing_Level >= 7
//   - Low Risk rises for the Whole Food category
func NewSampleBundle() *Bundle {
	return &Bundle{
		Manifest: Manifest{
			FeatureNames: []string{
				types.FieldFoodCategory,
				types.FieldSugar,
				types.FieldProcessingLevel,
			},
			FeatureEncoders: map[string][]string{
				types.FieldFoodCategory: {"Dairy", "Fast Food", "Whole Food"},
			},
			Classes: []string{"Diabetes", "Heart Disease", "Low Risk"},
			Booster: BoosterSpec{
				Format:    BoosterFormatTreeDump,
				File:      "trees.json",
				Objective: ObjectiveMultiSoftprob,
				NumClass:  3,
				BaseScore: 0.5,
			},
		},
		Trees: []*TreeNode{
			stump(types.FieldSugar, 15, -0.5, 1.5),
			stump("f2", 7, -0.5, 1.0),
			stump(types.FieldFoodCategory, 2, -0.3, 1.2),
		},
	}
}

// NewSampleClassifier builds a Classifier from NewSampleBundle
func NewSampleClassifier() *Classifier {
	c, err := NewClassifier(NewSampleBundle())
	if err != nil {
		panic(err)
	}
	return c
}
