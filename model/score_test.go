package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/recserve/core"
)

func TestScoreAll(t *testing.T) {
	items := mat.NewDense(2, 2, []float64{
		2, 5,
		1, 5,
	})
	m := NewFactorModel(mat.NewDense(1, 2, []float64{1, 0}), items, DefaultOptions())

	scores, err := ScoreAll([]float64{1, 0}, m)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, scores)
}

func TestScoreAll_DimensionMismatch(t *testing.T) {
	items := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	m := NewFactorModel(nil, items, DefaultOptions())

	_, err := ScoreAll([]float64{1, 2, 3}, m)
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestScoreAll_EmptyModel(t *testing.T) {
	m := NewFactorModel(nil, nil, DefaultOptions())

	scores, err := ScoreAll([]float64{1, 2}, m)
	require.NoError(t, err)
	assert.Nil(t, scores)
}

func TestBuildPopularity(t *testing.T) {
	m := BuildPopularity([]float64{5, 0, 12})
	assert.Equal(t, 3, m.NumItems())
	assert.Equal(t, 1, m.Factors())

	scores, err := ScoreAll(PopularityUserVector(), m)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	// 单因子 = 交互计数，打分即按流行度排序
	assert.Greater(t, scores[2], scores[0])
	assert.Greater(t, scores[0], scores[1])
}

func TestFactorModel_GobRoundTrip(t *testing.T) {
	trainer := &Trainer{Opts: Options{Factors: 2, Iterations: 2}, Seed: 5}
	m, err := trainer.Fit([]Pair{{User: 0, Item: 0}, {User: 1, Item: 1}}, 2, 2)
	require.NoError(t, err)

	blob, err := m.MarshalBinary()
	require.NoError(t, err)

	var back FactorModel
	require.NoError(t, back.UnmarshalBinary(blob))

	assert.Equal(t, m.NumUsers(), back.NumUsers())
	assert.Equal(t, m.NumItems(), back.NumItems())
	assert.Equal(t, m.Factors(), back.Factors())
	for id := int64(1); id <= 2; id++ {
		want, _ := m.UserVector(id)
		got, _ := back.UserVector(id)
		assert.Equal(t, want, got)
	}
}
