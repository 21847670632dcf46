package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/recserve/core"
)

// ScoreAll 计算用户向量对全部物品的稠密分数向量：score[i] = u · itemFactors[i]。
//
// 纯函数、无副作用；不做任何归一化（下游排序只依赖相对大小）。
// 物品维度为空时返回空切片。
func ScoreAll(u []float64, m *FactorModel) ([]float64, error) {
	n := m.NumItems()
	if n == 0 {
		return nil, nil
	}
	if len(u) != m.Factors() {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
			fmt.Sprintf("model: user vector has %d factors, model has %d", len(u), m.Factors()))
	}

	var out mat.VecDense
	out.MulVec(m.itemMatrix(), mat.NewVecDense(len(u), u))

	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		scores[i] = out.AtVec(i)
	}
	return scores, nil
}
