package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/recserve/core"
)

// onlineTestModel 构造一个物品因子接近正交的固定模型（2 因子、4 物品）。
func onlineTestModel() *FactorModel {
	items := mat.NewDense(4, 2, []float64{
		1.0, 0.1,
		0.9, 0.2,
		0.8, 0.1,
		0.1, 1.0,
	})
	users := mat.NewDense(1, 2, []float64{0.5, 0.5})
	return NewFactorModel(users, items, DefaultOptions())
}

func TestSolveUser_InsufficientSignal(t *testing.T) {
	m := onlineTestModel()

	tests := []struct {
		name  string
		owned []int64
	}{
		{"no owned items", nil},
		{"one owned item", []int64{1}},
		{"two owned items", []int64{1, 2}},
		{"out-of-range ids do not count", []int64{1, 2, 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SolveUser(m, tt.owned)
			require.Error(t, err)
			assert.True(t, core.IsInsufficientSignal(err))
		})
	}
}

func TestSolveUser_EmptyModel(t *testing.T) {
	m := NewFactorModel(nil, nil, DefaultOptions())

	_, err := SolveUser(m, []int64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, core.IsModelUnavailable(err))
}

func TestSolveUser_Solves(t *testing.T) {
	m := onlineTestModel()

	u, err := SolveUser(m, []int64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, u, m.Factors())
	for i, v := range u {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "factor %d must be finite", i)
	}

	// 持有物品全部集中在第一因子方向（物品 1/2/3），解出的向量应偏向同方向，
	// 对同方向物品的打分高于正交方向的未持有物品
	scores, err := ScoreAll(u, m)
	require.NoError(t, err)
	assert.Greater(t, scores[0], scores[3], "owned-direction item should outscore the orthogonal one")
}
