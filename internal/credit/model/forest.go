package model

import (
	"context"
	"encoding/json"
	"fmt"

	"credit-default-risk/internal/credit/features"
)

// leaf marks a node without children, following the exported tree convention.
const leaf = -1

// ForestSpec is the on-disk form of a tree ensemble exported from the
// training notebook.
type ForestSpec struct {
	NClasses      int        `json:"n_classes"`
	PositiveClass int        `json:"positive_class"`
	Trees         []TreeSpec `json:"trees"`
}

type TreeSpec struct {
	Nodes []NodeSpec `json:"nodes"`
}

// NodeSpec is one split or leaf. Splits send x[feature] <= threshold left.
// Leaves carry per-class sample counts or weights in Value.
type NodeSpec struct {
	Feature   string    `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	positive  float64
}

// Forest is a random-forest classifier bound to a feature schema. The
// probability is the mean over trees of the normalised leaf class
// distribution for the positive class.
type Forest struct {
	width int
	trees [][]node
}

// ParseForest decodes a forest artifact and binds it to schema.
func ParseForest(data []byte, schema features.Schema) (*Forest, error) {
	var spec ForestSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	return NewForest(spec, schema)
}

// NewForest validates spec against schema. Every split feature must be a
// schema column and every leaf must carry n_classes values.
func NewForest(spec ForestSpec, schema features.Schema) (*Forest, error) {
	if spec.NClasses < 2 {
		return nil, fmt.Errorf("forest: n_classes must be at least 2, got %d", spec.NClasses)
	}
	if spec.PositiveClass < 0 || spec.PositiveClass >= spec.NClasses {
		return nil, fmt.Errorf("forest: positive_class %d out of range", spec.PositiveClass)
	}
	if len(spec.Trees) == 0 {
		return nil, fmt.Errorf("forest: no trees")
	}

	f := &Forest{width: schema.Len(), trees: make([][]node, len(spec.Trees))}
	for t, tree := range spec.Trees {
		nodes, err := bindTree(tree, spec, schema)
		if err != nil {
			return nil, fmt.Errorf("forest: tree %d: %w", t, err)
		}
		f.trees[t] = nodes
	}
	return f, nil
}

func bindTree(tree TreeSpec, spec ForestSpec, schema features.Schema) ([]node, error) {
	if len(tree.Nodes) == 0 {
		return nil, fmt.Errorf("no nodes")
	}

	nodes := make([]node, len(tree.Nodes))
	for i, n := range tree.Nodes {
		if n.Left == leaf || n.Right == leaf {
			if n.Left != n.Right {
				return nil, fmt.Errorf("node %d has exactly one child", i)
			}
			if len(n.Value) != spec.NClasses {
				return nil, fmt.Errorf("leaf %d has %d class values, want %d", i, len(n.Value), spec.NClasses)
			}
			total := 0.0
			for _, v := range n.Value {
				if v < 0 {
					return nil, fmt.Errorf("leaf %d has a negative class value", i)
				}
				total += v
			}
			if total == 0 {
				return nil, fmt.Errorf("leaf %d is empty", i)
			}
			nodes[i] = node{left: leaf, right: leaf, positive: n.Value[spec.PositiveClass] / total}
			continue
		}

		// children always come after their parent, which also rules out cycles
		if n.Left <= i || n.Right <= i || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
			return nil, fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
		idx := schema.Index(n.Feature)
		if idx < 0 {
			return nil, fmt.Errorf("node %d splits on %q which is not in the feature schema", i, n.Feature)
		}
		nodes[i] = node{feature: idx, threshold: n.Threshold, left: n.Left, right: n.Right}
	}
	return nodes, nil
}

// PredictProba walks every tree and averages the positive-class share.
func (f *Forest) PredictProba(ctx context.Context, vector features.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if vector.Len() != f.width {
		return 0, fmt.Errorf("forest expects %d features, got %d", f.width, vector.Len())
	}

	sum := 0.0
	for _, nodes := range f.trees {
		i := 0
		for nodes[i].left != leaf {
			if vector.At(nodes[i].feature) <= nodes[i].threshold {
				i = nodes[i].left
			} else {
				i = nodes[i].right
			}
		}
		sum += nodes[i].positive
	}
	return sum / float64(len(f.trees)), nil
}

// Trees returns the ensemble size.
func (f *Forest) Trees() int {
	return len(f.trees)
}
