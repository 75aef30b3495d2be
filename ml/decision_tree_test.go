package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionTreeTrainPredict(t *testing.T) {
	features := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	labels := []float64{0, 0, 1, 1}

	model := &DecisionTree{}
	require.NoError(t, model.Train(features, labels, TreeConfig{MaxDepth: 2, NumClasses: 2}))

	dist, err := model.Leaf([]float64{0.15, 0.15})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, dist)

	dist, err = model.Leaf([]float64{0.85, 0.85})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, dist)
}

func TestDecisionTreeRegression(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
	targets := []float64{5, 5, 5, 50, 50, 50}

	model := &DecisionTree{}
	require.NoError(t, model.Train(features, targets, TreeConfig{MaxDepth: 3}))

	v, err := model.Leaf([]float64{2})
	require.NoError(t, err)
	assert.InDelta(t, 5, v[0], 1e-9)

	v, err = model.Leaf([]float64{11})
	require.NoError(t, err)
	assert.InDelta(t, 50, v[0], 1e-9)
}

func TestDecisionTreeNestedChildIndexes(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}}
	labels := []float64{0, 0, 1, 1, 2, 2, 3, 3}

	model := &DecisionTree{}
	require.NoError(t, model.Train(features, labels, TreeConfig{MaxDepth: 4, NumClasses: 4}))
	require.NoError(t, model.validate(1, 4))

	for i, x := range features {
		dist, err := model.Leaf(x)
		require.NoError(t, err)
		assert.Equal(t, 1.0, dist[int(labels[i])], "sample %v", x)
	}
}

func TestDecisionTreeUntrained(t *testing.T) {
	_, err := (&DecisionTree{}).Leaf([]float64{1})
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestDecisionTreeRejectsCycles(t *testing.T) {
	tree := DecisionTree{Nodes: []TreeNode{
		{FeatureIdx: 0, Threshold: 1, LeftChild: 0, RightChild: 0},
	}}
	_, err := tree.Leaf([]float64{0})
	assert.Error(t, err)
	assert.Error(t, tree.validate(1, 1))
}
