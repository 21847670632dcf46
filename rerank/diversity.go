package rerank

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
)

// DiversityNode 是二项分布模型的多样性重排节点：在已按分数排好的候选上，
// 以类目覆盖度（coverage）与非冗余度（non-redundancy）的乘积衡量子列表的
// 多样性，贪心地在"原排序位次"与"边际多样性增益"之间混合选择。
//
// 概率模型（对候选集中出现的每个类目 g）：
//
//	p_global(g) = 候选中属于 g 的物品数 / 候选总数
//	p_local(g)  = 用户持有物品中属于 g 的数目 / 持有总数（无持有则为 0）
//	p(g)        = Alpha·p_local + (1−Alpha)·p_global
//
// coverage = Π_{g 缺席} Pmf(0; k, p(g)) ^ (1/|G|) —— 随缺席类目增多而降低；
// non-redundancy = Π_{g 在场, 频次 f} [(1−Cdf(f−1; k, p(g))) / (1−Pmf(0; k, p(g)))] ^ (1/|在场|)
// —— 惩罚单一类目的过度堆积。
//
// 候选类目完全同质（不超过一个类目）时模型没有判别力，原序返回。
// 只调序不增删：贪心选满 TargetN 后，剩余候选按原顺序补在尾部。
type DiversityNode struct {
	Genres core.GenreIndex

	// Alpha 混合个人偏好与群体频率，默认 0.85。
	Alpha float64

	// Lambda 混合多样性增益与原排序位次，默认 0.95（重多样性）。
	Lambda float64

	// Window 限制贪心每一步考察的候选窗口，0 表示 max(4·n, 100)。
	Window int
}

// 增益归一化的固定常数（经验值）：均值 0，方差 0.25。
const (
	divGainMean   = 0.0
	divGainStddev = 0.5 // sqrt(0.25)
)

func (n *DiversityNode) Name() string        { return "rerank.diversity" }
func (n *DiversityNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *DiversityNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Genres == nil || len(items) <= 1 || rctx == nil {
		return items, nil
	}
	target := rctx.N
	if target <= 0 || target > len(items) {
		target = len(items)
	}

	st := n.newState(ctx, rctx, items)
	if len(st.genres) <= 1 {
		return items, nil
	}

	alpha := n.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.85
	}
	lambda := n.Lambda
	if lambda <= 0 || lambda > 1 {
		lambda = 0.95
	}
	st.mixProbabilities(alpha)

	window := n.Window
	if window <= 0 {
		window = 4 * target
		if window < 100 {
			window = 100
		}
	}

	total := len(items)
	origIdx := make(map[*core.Item]int, total)
	for i, it := range items {
		origIdx[it] = i
	}

	pool := append([]*core.Item(nil), items...)
	out := make([]*core.Item, 0, total)
	counts := make(map[core.GenreID]int, len(st.genres))
	size := 0

	for len(out) < target && len(pool) > 0 {
		base := st.diversity(counts, size)
		w := window
		if w > len(pool) {
			w = len(pool)
		}

		bestIdx := 0
		bestScore := math.Inf(-1)
		for i := 0; i < w; i++ {
			c := pool[i]
			gs := st.genresOf[c.ID]
			for _, g := range gs {
				counts[g]++
			}
			gain := st.diversity(counts, size+1) - base
			for _, g := range gs {
				counts[g]--
			}

			normDiv := (gain - divGainMean) / divGainStddev
			normRank := float64(total-origIdx[c]) / float64(total)
			blended := (1-lambda)*normRank + lambda*normDiv
			if blended > bestScore {
				bestScore = blended
				bestIdx = i
			}
		}

		chosen := pool[bestIdx]
		pool = append(pool[:bestIdx], pool[bestIdx+1:]...)
		for _, g := range st.genresOf[chosen.ID] {
			counts[g]++
		}
		size++
		out = append(out, chosen)
	}

	// 剩余候选按原顺序补齐，保证输出与输入长度一致
	return append(out, pool...), nil
}

// divState 是单次请求的求值状态：类目概率与二项分布查表的 memo
//（一次请求内只出现少数几个 trial size，重复查询命中率很高）。
type divState struct {
	genresOf map[int64][]core.GenreID
	genres   []core.GenreID
	pGlobal  map[core.GenreID]float64
	pLocal   map[core.GenreID]float64
	p        map[core.GenreID]float64

	pmfMemo map[binKey]float64
	cdfMemo map[binKey]float64
}

// binKey 以 (类目, 频次, 子列表长度) 为 memo 键。
type binKey struct {
	g core.GenreID
	k int
	n int
}

func (n *DiversityNode) newState(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) *divState {
	st := &divState{
		genresOf: make(map[int64][]core.GenreID, len(items)),
		pGlobal:  make(map[core.GenreID]float64),
		pLocal:   make(map[core.GenreID]float64),
		p:        make(map[core.GenreID]float64),
		pmfMemo:  make(map[binKey]float64),
		cdfMemo:  make(map[binKey]float64),
	}

	// 候选集中的类目频率
	genreCount := make(map[core.GenreID]int)
	for _, it := range items {
		gs, err := n.Genres.GenresOf(ctx, it.ID)
		if err != nil {
			continue
		}
		st.genresOf[it.ID] = gs
		for _, g := range gs {
			genreCount[g]++
		}
	}
	for g, c := range genreCount {
		st.genres = append(st.genres, g)
		st.pGlobal[g] = float64(c) / float64(len(items))
	}

	// 用户持有集中的类目频率（个人偏好）
	if rctx.User != nil {
		owned := rctx.User.OwnedItemIDs()
		if len(owned) > 0 {
			ownedCount := make(map[core.GenreID]int)
			for _, id := range owned {
				gs, err := n.Genres.GenresOf(ctx, id)
				if err != nil {
					continue
				}
				for _, g := range gs {
					ownedCount[g]++
				}
			}
			for _, g := range st.genres {
				st.pLocal[g] = float64(ownedCount[g]) / float64(len(owned))
			}
		}
	}
	return st
}

func (st *divState) mixProbabilities(alpha float64) {
	for _, g := range st.genres {
		st.p[g] = alpha*st.pLocal[g] + (1-alpha)*st.pGlobal[g]
	}
}

// diversity = coverage × non-redundancy，对数域累积避免多类目下的下溢。
func (st *divState) diversity(counts map[core.GenreID]int, size int) float64 {
	if size == 0 {
		return 1
	}

	logCov := 0.0
	logRed := 0.0
	present := 0
	for _, g := range st.genres {
		f := counts[g]
		if f == 0 {
			logCov += math.Log(st.pmf0(g, size))
			continue
		}
		present++
		atLeastF := 1 - st.cdf(g, f-1, size)
		atLeastOne := 1 - st.pmf0(g, size)
		if atLeastOne <= 0 {
			continue
		}
		logRed += math.Log(atLeastF / atLeastOne)
	}

	cov := math.Exp(logCov / float64(len(st.genres)))
	red := 1.0
	if present > 0 {
		red = math.Exp(logRed / float64(present))
	}
	return cov * red
}

// pmf0 返回 Binomial(n, p(g)) 在 0 处的概率质量。
func (st *divState) pmf0(g core.GenreID, n int) float64 {
	key := binKey{g: g, k: 0, n: n}
	if v, ok := st.pmfMemo[key]; ok {
		return v
	}
	b := distuv.Binomial{N: float64(n), P: st.p[g]}
	v := b.Prob(0)
	st.pmfMemo[key] = v
	return v
}

// cdf 返回 Binomial(n, p(g)) 在 k 处的累积分布。
func (st *divState) cdf(g core.GenreID, k, n int) float64 {
	key := binKey{g: g, k: k, n: n}
	if v, ok := st.cdfMemo[key]; ok {
		return v
	}
	b := distuv.Binomial{N: float64(n), P: st.p[g]}
	v := b.CDF(float64(k))
	st.cdfMemo[key] = v
	return v
}
