package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/recserve/core"
)

// minOwnedItems 是在线求解的前置条件：持有物品不足 3 个时拒绝求解
//（欠定方程组会产生无意义的因子），调用方应切换到流行度备选模型。
const minOwnedItems = 3

// SolveUser 为训练集中未出现的用户在线计算因子向量（冷启动路径）。
//
// 设 Y 为该用户持有物品对应的 k×d 物品因子子矩阵，p 为观测置信度提升常数：
//
//	u = (YᵗY + Yᵗ·diag(p−1)·Y + λI)⁻¹ · Yᵗ·diag(p)·1
//
// 即固定物品矩阵、restricted 到单用户的 ALS 更新。
//
// 前置条件：有效持有物品数 k >= 3，否则返回 INSUFFICIENT_SIGNAL，
// 不执行任何线性求解。
func SolveUser(m *FactorModel, owned []int64) ([]float64, error) {
	if m.Empty() {
		return nil, ErrModelUnavailable
	}

	d := m.Factors()
	opts := normalizeOpts(m.Opts())

	// 只保留在物品矩阵行范围内的持有物品
	rows := make([][]float64, 0, len(owned))
	for _, id := range owned {
		if v, ok := m.ItemVector(id); ok {
			rows = append(rows, v)
		}
	}
	k := len(rows)
	if k < minOwnedItems {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInsufficientSignal,
			fmt.Sprintf("model: %d owned items, need at least %d for online solve", k, minOwnedItems))
	}

	yData := make([]float64, 0, k*d)
	for _, r := range rows {
		yData = append(yData, r...)
	}
	y := mat.NewDense(k, d, yData)

	p := opts.Confidence
	lam := opts.Lambda
	if lam < minLambda {
		lam = minLambda
	}

	// diag(p−1) 对全部观测取同一常数，故 Yᵗ·diag(p−1)·Y = (p−1)·YᵗY
	var ytY mat.Dense
	ytY.Mul(y.T(), y)

	a := mat.NewDense(d, d, nil)
	a.Scale(p, &ytY) // YᵗY + (p−1)·YᵗY
	for i := 0; i < d; i++ {
		a.Set(i, i, a.At(i, i)+lam)
	}

	// b = Yᵗ·diag(p)·1 = p · (Y 的列和)
	b := make([]float64, d)
	for _, r := range rows {
		for i := 0; i < d; i++ {
			b[i] += p * r[i]
		}
	}

	var x mat.VecDense
	if err := x.SolveVec(a, mat.NewVecDense(d, b)); err != nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNumericFailure,
			fmt.Sprintf("model: online solve failed: %v", err))
	}

	u := make([]float64, d)
	for i := 0; i < d; i++ {
		v := x.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNumericFailure,
				"model: online solve produced NaN/Inf")
		}
		u[i] = v
	}
	return u, nil
}
