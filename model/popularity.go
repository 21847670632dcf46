package model

import "gonum.org/v1/gonum/mat"

// BuildPopularity 构建流行度备选模型：单因子的退化 FactorModel，
// 物品因子 = 交互计数。配合全 1 用户向量打分即得按流行度排序。
//
// 用途：冷启动用户信号不足（INSUFFICIENT_SIGNAL）时替代主模型，
// 不经过兜底（contingency）路径。
func BuildPopularity(counts []float64) *FactorModel {
	if len(counts) == 0 {
		return NewFactorModel(nil, nil, DefaultOptions())
	}
	items := mat.NewDense(len(counts), 1, append([]float64(nil), counts...))
	opts := DefaultOptions()
	opts.Factors = 1
	return NewFactorModel(nil, items, opts)
}

// PopularityUserVector 返回流行度模型使用的用户向量（全 1，单因子）。
func PopularityUserVector() []float64 { return []float64{1} }
