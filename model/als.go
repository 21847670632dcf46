package model

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/recserve/core"
)

// Pair 是一条隐式反馈观测：(用户行号, 物品行号, 计数)。
// 行号从 0 起（矩阵索引，不是稠密 id）。Score 为 0 时按 1 处理；
// 缺失的 (user, item) 组合表示"未观测"，不是负样本。
type Pair struct {
	User  int
	Item  int
	Score float64
}

// minLambda 是正则项下界：即使配置 Lambda=0 也不允许真正退化为 0，
// 否则无观测约束的实体会产生奇异方程组。
const minLambda = 1e-6

// Trainer 以 ALS（交替最小二乘）训练隐因子模型。
//
// 更新顺序约定：同一轮内逐实体原地更新因子行，后解的实体立即看到先解实体的
// 新值（synchronous/in-place 口径）。这是本实现固定下来的契约。
//
// 训练假定在请求路径之外离线执行：单写者、不受响应时限约束、无内部取消点。
type Trainer struct {
	Opts Options

	// Seed 是随机初始化种子；0 表示按当前时间取种。测试中固定种子以保证可复现。
	Seed int64
}

// Fit 在隐式反馈对上训练模型。
// nUsers/nItems 任一为 0 时训练为空操作，返回空模型（调用方视为"无模型"走降级）。
// 数值失败（奇异方程组、NaN/Inf 因子）返回 NUMERIC_FAILURE，绝不返回坏模型。
func (t *Trainer) Fit(pairs []Pair, nUsers, nItems int) (*FactorModel, error) {
	opts := normalizeOpts(t.Opts)

	if nUsers == 0 || nItems == 0 {
		return NewFactorModel(nil, nil, opts), nil
	}

	byUser := make([][]Pair, nUsers)
	byItem := make([][]Pair, nItems)
	for _, p := range pairs {
		if p.User < 0 || p.User >= nUsers || p.Item < 0 || p.Item >= nItems {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				fmt.Sprintf("model: pair (%d,%d) out of range %dx%d", p.User, p.Item, nUsers, nItems))
		}
		byUser[p.User] = append(byUser[p.User], p)
		byItem[p.Item] = append(byItem[p.Item], p)
	}

	seed := t.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	d := opts.Factors
	users := randomDense(rnd, nUsers, d)
	items := randomDense(rnd, nItems, d)

	for it := 0; it < opts.Iterations; it++ {
		// 用户侧：固定物品因子解用户行
		if err := solveSide(users, items, byUser, pairItem, opts); err != nil {
			return nil, err
		}
		// 物品侧：固定用户因子解物品行
		if err := solveSide(items, users, byItem, pairUser, opts); err != nil {
			return nil, err
		}
	}

	m := NewFactorModel(users, items, opts)
	if !m.Finite() {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNumericFailure,
			"model: trained factors contain NaN/Inf")
	}
	return m, nil
}

func pairItem(p Pair) int { return p.Item }
func pairUser(p Pair) int { return p.User }

// solveSide 对一个维度做一轮封闭解更新。
//
// 对该维度的每个有观测的实体 e：
//
//	factor[e] = (base + Σ w·y·yᵗ + λI)⁻¹ · Σ sign(s)·w·y
//
// 其中 base = otherᵗ·other（d×d，全实体共享，半轮开头算一次），
// y 是对侧当前因子行，w = 1 + α·ln(1+|s|)。
// 行解出即写回（同轮内先更新的行对后续实体可见）。
func solveSide(this, other *mat.Dense, groups [][]Pair, otherRow func(Pair) int, opts Options) error {
	d := opts.Factors
	lam := opts.Lambda
	if lam < minLambda {
		lam = minLambda
	}

	var base mat.Dense
	base.Mul(other.T(), other)

	a := mat.NewDense(d, d, nil)
	b := make([]float64, d)
	y := make([]float64, d)
	row := make([]float64, d)

	for e, ps := range groups {
		if len(ps) == 0 {
			continue
		}

		a.Copy(&base)
		for i := 0; i < d; i++ {
			a.Set(i, i, a.At(i, i)+lam)
			b[i] = 0
		}

		for _, p := range ps {
			mat.Row(y, otherRow(p), other)
			s := p.Score
			if s == 0 {
				s = 1
			}
			w := 1 + opts.Alpha*math.Log1p(math.Abs(s))
			sign := 1.0
			if s < 0 {
				sign = -1
			}
			for i := 0; i < d; i++ {
				b[i] += sign * w * y[i]
				wy := w * y[i]
				for j := 0; j < d; j++ {
					a.Set(i, j, a.At(i, j)+wy*y[j])
				}
			}
		}

		var x mat.VecDense
		if err := x.SolveVec(a, mat.NewVecDense(d, b)); err != nil {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeNumericFailure,
				fmt.Sprintf("model: singular system for entity %d: %v", e, err))
		}
		for i := 0; i < d; i++ {
			row[i] = x.AtVec(i)
		}
		this.SetRow(e, row)
	}
	return nil
}

// randomDense 以 [0,1) 均匀随机初始化 r×c 矩阵。
func randomDense(rnd *rand.Rand, r, c int) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = rnd.Float64()
	}
	return mat.NewDense(r, c, data)
}

// normalizeOpts 为零值超参数补默认值。
func normalizeOpts(o Options) Options {
	def := DefaultOptions()
	if o.Factors <= 0 {
		o.Factors = def.Factors
	}
	if o.Iterations <= 0 {
		o.Iterations = def.Iterations
	}
	if o.Lambda <= 0 {
		o.Lambda = def.Lambda
	}
	if o.Alpha <= 0 {
		o.Alpha = def.Alpha
	}
	if o.Confidence <= 0 {
		o.Confidence = def.Confidence
	}
	return o
}
