package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode is one entry of a flattened tree. Leaves carry a class distribution
// (classification) or a single mean (regression) in Value.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value"`
}

// TreeConfig controls Train. NumClasses of zero trains a regression tree.
type TreeConfig struct {
	MaxDepth        int
	MinSamplesSplit int
	NumClasses      int
	MaxFeatures     int
	Rand            *rand.Rand
}

func (dt *DecisionTree) Train(features [][]float64, targets []float64, cfg TreeConfig) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 3
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	dt.Nodes = dt.buildNode(features, targets, 0, cfg)
	return nil
}

// Leaf walks the tree and returns the value vector of the reached leaf.
func (dt *DecisionTree) Leaf(features []float64) ([]float64, error) {
	if len(dt.Nodes) == 0 {
		return nil, ErrNotTrained
	}
	idx := 0
	for steps := 0; steps <= len(dt.Nodes); steps++ {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
	return nil, errors.New("tree contains a cycle")
}

func (dt *DecisionTree) validate(numFeatures, valueLen int) error {
	if len(dt.Nodes) == 0 {
		return ErrNotTrained
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			if len(node.Value) != valueLen {
				return fmt.Errorf("node %d: leaf value has %d entries, want %d", i, len(node.Value), valueLen)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= numFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(dt.Nodes) ||
			node.RightChild <= i || node.RightChild >= len(dt.Nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

func (dt *DecisionTree) buildNode(features [][]float64, targets []float64, depth int, cfg TreeConfig) []TreeNode {
	leaf := []TreeNode{{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		IsLeaf:     true,
		Value:      leafValue(targets, cfg.NumClasses),
	}}
	if depth >= cfg.MaxDepth || len(targets) < cfg.MinSamplesSplit || isPure(targets) {
		return leaf
	}

	bestFeature, threshold, ok := findBestSplit(features, targets, cfg)
	if !ok {
		return leaf
	}

	leftFeatures, leftTargets, rightFeatures, rightTargets := splitData(features, targets, bestFeature, threshold)
	if len(leftTargets) == 0 || len(rightTargets) == 0 {
		return leaf
	}

	leftNodes := dt.buildNode(leftFeatures, leftTargets, depth+1, cfg)
	rightNodes := dt.buildNode(rightFeatures, rightTargets, depth+1, cfg)

	root := TreeNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
	}

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, shiftChildren(leftNodes, 1)...)
	nodes = append(nodes, shiftChildren(rightNodes, 1+len(leftNodes))...)
	return nodes
}

func shiftChildren(nodes []TreeNode, offset int) []TreeNode {
	for i := range nodes {
		if nodes[i].IsLeaf {
			continue
		}
		nodes[i].LeftChild += offset
		nodes[i].RightChild += offset
	}
	return nodes
}

func candidateFeatures(count int, cfg TreeConfig) []int {
	if cfg.Rand == nil || cfg.MaxFeatures <= 0 || cfg.MaxFeatures >= count {
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return cfg.Rand.Perm(count)[:cfg.MaxFeatures]
}

func findBestSplit(features [][]float64, targets []float64, cfg TreeConfig) (int, float64, bool) {
	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64

	for _, featureIdx := range candidateFeatures(len(features[0]), cfg) {
		values := make([]float64, len(features))
		for i := range features {
			values[i] = features[i][featureIdx]
		}
		sort.Float64s(values)
		for _, q := range []float64{0.25, 0.5, 0.75} {
			threshold := quantile(values, q)
			left, right := splitTargets(features, targets, featureIdx, threshold)
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			impurity := weightedImpurity(left, right, cfg.NumClasses)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = featureIdx
				bestThreshold = threshold
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func splitData(features [][]float64, targets []float64, featureIdx int, threshold float64) ([][]float64, []float64, [][]float64, []float64) {
	var leftFeatures, rightFeatures [][]float64
	var leftTargets, rightTargets []float64
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, feature)
			leftTargets = append(leftTargets, targets[i])
		} else {
			rightFeatures = append(rightFeatures, feature)
			rightTargets = append(rightTargets, targets[i])
		}
	}
	return leftFeatures, leftTargets, rightFeatures, rightTargets
}

func splitTargets(features [][]float64, targets []float64, featureIdx int, threshold float64) ([]float64, []float64) {
	var left, right []float64
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			left = append(left, targets[i])
		} else {
			right = append(right, targets[i])
		}
	}
	return left, right
}

func weightedImpurity(left, right []float64, numClasses int) float64 {
	leftWeight := float64(len(left))
	rightWeight := float64(len(right))
	total := leftWeight + rightWeight
	impurity := variance
	if numClasses > 0 {
		impurity = gini
	}
	return (leftWeight/total)*impurity(left) + (rightWeight/total)*impurity(right)
}

func gini(labels []float64) float64 {
	if len(labels) == 0 {
		return 0
	}
	counts := make(map[float64]int)
	for _, label := range labels {
		counts[label]++
	}
	impurity := 1.0
	for _, count := range counts {
		prob := float64(count) / float64(len(labels))
		impurity -= prob * prob
	}
	return impurity
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return sum / float64(len(values))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func leafValue(targets []float64, numClasses int) []float64 {
	if numClasses <= 0 {
		return []float64{mean(targets)}
	}
	dist := make([]float64, numClasses)
	for _, label := range targets {
		idx := int(label)
		if idx >= 0 && idx < numClasses {
			dist[idx]++
		}
	}
	for i := range dist {
		dist[i] /= float64(len(targets))
	}
	return dist
}

func isPure(targets []float64) bool {
	if len(targets) == 0 {
		return true
	}
	first := targets[0]
	for _, t := range targets[1:] {
		if t != first {
			return false
		}
	}
	return true
}
