package model

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Supported training objectives
const (
	ObjectiveMultiSoftprob  = "multi:softprob"
	ObjectiveMultiSoftmax   = "multi:softmax"
	ObjectiveBinaryLogistic = "binary:logistic"
)

const defaultBaseScore = 0.5

// TreeNode is one node of an XGBoost JSON tree dump, as produced by
// Booster.dump_model(path, dump_format="json"). Leaves carry Leaf; split
// nodes carry Split, SplitCondition, the Yes/No/Missing child ids and the
// nested Children.
type TreeNode struct {
	NodeID         int         `json:"nodeid"`
	Depth          int         `json:"depth,omitempty"`
	Split          string      `json:"split,omitempty"`
	SplitCondition float64     `json:"split_condition,omitempty"`
	Yes            int         `json:"yes,omitempty"`
	No             int         `json:"no,omitempty"`
	Missing        int         `json:"missing,omitempty"`
	Leaf           *float64    `json:"leaf,omitempty"`
	Children       []*TreeNode `json:"children,omitempty"`
}

// IsLeaf reports whether the node is a leaf
func (n *TreeNode) IsLeaf() bool {
	return n.Leaf != nil
}

type flatNode struct {
	feature   int // -1 for leaves
	threshold float32
	yes       int
	no        int
	missing   int
	value     float64
}

type flatTree []flatNode

// indexed feature names in dumps made without a feature map: f0, f1, ...
var indexedFeature = regexp.MustCompile(`^f(\d+)$`)

func resolveFeature(split string, names []string) (int, error) {
	for i, name := range names {
		if name == split {
			return i, nil
		}
	}
	if m := indexedFeature.FindStringSubmatch(split); m != nil {
		i, err := strconv.Atoi(m[1])
		if err == nil && i < len(names) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("split feature %q is not in the feature list", split)
}

func flatten(root *TreeNode, names []string) (flatTree, error) {
	byID := make(map[int]*TreeNode)
	stack := []*TreeNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			return nil, fmt.Errorf("null node in tree")
		}
		if _, dup := byID[n.NodeID]; dup {
			return nil, fmt.Errorf("duplicate node id %d", n.NodeID)
		}
		if n.NodeID < 0 {
			return nil, fmt.Errorf("negative node id %d", n.NodeID)
		}
		byID[n.NodeID] = n
		stack = append(stack, n.Children...)
	}

	tree := make(flatTree, len(byID))
	for id, n := range byID {
		if id >= len(tree) {
			return nil, fmt.Errorf("node ids are not contiguous: %d in a tree of %d nodes", id, len(tree))
		}
		if n.IsLeaf() {
			tree[id] = flatNode{feature: -1, value: *n.Leaf}
			continue
		}

		feature, err := resolveFeature(n.Split, names)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		for _, child := range []int{n.Yes, n.No, n.Missing} {
			if _, ok := byID[child]; !ok || child <= id {
				return nil, fmt.Errorf("node %d: invalid child reference %d", id, child)
			}
		}
		tree[id] = flatNode{
			feature:   feature,
			threshold: float32(n.SplitCondition),
			yes:       n.Yes,
			no:        n.No,
			missing:   n.Missing,
		}
	}
	return tree, nil
}

// leaf walks the tree for x. Children always have larger ids than their
// parent, which flatten enforces, so the walk terminates. Splits compare in
// float32 like the booster that produced the dump.
func (t flatTree) leaf(x []float64) float64 {
	i := 0
	for t[i].feature >= 0 {
		n := t[i]
		v := x[n.feature]
		switch {
		case math.IsNaN(v):
			i = n.missing
		case float32(v) < n.threshold:
			i = n.yes
		default:
			i = n.no
		}
	}
	return t[i].value
}

// TreeEnsemble evaluates a gradient-boosted tree dump natively
type TreeEnsemble struct {
	objective   string
	numClass    int
	baseScore   float64
	numFeatures int
	trees       []flatTree
}

// NewTreeEnsemble compiles the dumped trees against the feature layout
func NewTreeEnsemble(trees []*TreeNode, spec BoosterSpec, featureNames []string) (*TreeEnsemble, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("model has no trees")
	}

	numClass := spec.NumClass
	switch spec.Objective {
	case ObjectiveMultiSoftprob, ObjectiveMultiSoftmax:
		if numClass < 2 {
			return nil, fmt.Errorf("objective %s needs num_class >= 2, got %d", spec.Objective, numClass)
		}
		if len(trees)%numClass != 0 {
			return nil, fmt.Errorf("%d trees do not divide into %d classes", len(trees), numClass)
		}
	case ObjectiveBinaryLogistic:
		numClass = 2
	default:
		return nil, fmt.Errorf("unsupported objective %q", spec.Objective)
	}

	baseScore := spec.BaseScore
	if baseScore == 0 {
		baseScore = defaultBaseScore
	}

	compiled := make([]flatTree, len(trees))
	for i, root := range trees {
		tree, err := flatten(root, featureNames)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		compiled[i] = tree
	}

	return &TreeEnsemble{
		objective:   spec.Objective,
		numClass:    numClass,
		baseScore:   baseScore,
		numFeatures: len(featureNames),
		trees:       compiled,
	}, nil
}

// NumClass returns the number of output classes
func (e *TreeEnsemble) NumClass() int {
	return e.numClass
}

// PredictProba returns one probability per class
func (e *TreeEnsemble) PredictProba(x []float64) ([]float64, error) {
	if len(x) != e.numFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", e.numFeatures, len(x))
	}

	if e.objective == ObjectiveBinaryLogistic {
		margin := logit(e.baseScore)
		for _, tree := range e.trees {
			margin += tree.leaf(x)
		}
		p := 1 / (1 + math.Exp(-margin))
		return []float64{1 - p, p}, nil
	}

	margins := make([]float64, e.numClass)
	for k := range margins {
		margins[k] = e.baseScore
	}
	// trees are interleaved by boosting round: tree i belongs to class i mod numClass
	for i, tree := range e.trees {
		margins[i%e.numClass] += tree.leaf(x)
	}
	return softmax(margins), nil
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func softmax(margins []float64) []float64 {
	top := margins[0]
	for _, m := range margins[1:] {
		top = max(top, m)
	}

	out := make([]float64, len(margins))
	var sum float64
	for i, m := range margins {
		out[i] = math.Exp(m - top)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
