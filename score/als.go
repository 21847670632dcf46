// Package score 实现打分节点：解析用户因子向量并对全量物品生成稠密分数候选。
package score

import (
	"context"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
	"github.com/rushteam/recserve/pipeline"
)

// ModelProvider 返回当前已发布的模型。由服务方注入（通常是缓存回源），
// 返回的模型是共享只读引用，节点不得修改。
type ModelProvider func(ctx context.Context) (*model.FactorModel, error)

// ALSNode 是隐因子打分节点，忽略输入候选，输出覆盖全量物品的打分候选。
//
// 用户向量解析顺序：
//  1. 用户稠密 id 在训练行范围内：直接取训练行
//  2. 训练集外的新用户：在线闭式解（持有物品 >= 3）
//  3. 在线解信号不足（INSUFFICIENT_SIGNAL）：切换流行度备选模型，
//     属于正常降级，不触发兜底
//
// 主模型不可用（MODEL_UNAVAILABLE）作为错误向上传播，由 contingency
// 边界转换为兜底结果。
type ALSNode struct {
	Model      ModelProvider
	Popularity ModelProvider
}

func (n *ALSNode) Name() string        { return "score.als" }
func (n *ALSNode) Kind() pipeline.Kind { return pipeline.KindScore }

func (n *ALSNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	m, err := n.Model(ctx)
	if err != nil {
		return nil, err
	}
	if m.Empty() {
		return nil, model.ErrModelUnavailable
	}

	u, source, err := n.resolveUserVector(ctx, rctx, m)
	if err != nil {
		return nil, err
	}
	if source == "popularity" {
		pm, perr := n.Popularity(ctx)
		if perr != nil {
			return nil, perr
		}
		m = pm
		u = model.PopularityUserVector()
	}

	scores, err := model.ScoreAll(u, m)
	if err != nil {
		return nil, err
	}

	rctx.PutLabel("source", core.Label{Value: source, Source: "score"})

	out := make([]*core.Item, len(scores))
	for i, s := range scores {
		it := core.NewItem(int64(i) + 1)
		it.Score = s
		it.PutLabel("source", core.Label{Value: source, Source: "score"})
		out[i] = it
	}
	return out, nil
}

// resolveUserVector 解析用户向量并返回来源标记（model / online / popularity）。
func (n *ALSNode) resolveUserVector(
	_ context.Context,
	rctx *core.RecommendContext,
	m *model.FactorModel,
) ([]float64, string, error) {
	if rctx == nil || rctx.User == nil {
		// 无法解析用户即无个性化信号，按冷启动降级处理
		return nil, "popularity", nil
	}

	if u, ok := m.UserVector(rctx.User.ID); ok {
		return u, "model", nil
	}

	u, err := model.SolveUser(m, rctx.User.OwnedItemIDs())
	if err != nil {
		if core.IsInsufficientSignal(err) {
			return nil, "popularity", nil
		}
		return nil, "", err
	}
	return u, "online", nil
}
