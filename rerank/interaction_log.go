package rerank

import (
	"context"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
)

// InteractionLogNode 是基于交互日志的重排节点：把最近已经推荐过、
// 且此后没有任何点击/获得的物品整体后移（用户大概率不感兴趣），
// 未被降权的候选保持原有相对顺序。
//
// 只调序不增删；日志读取失败时放行原序（日志是弱依赖）。
type InteractionLogNode struct {
	Store core.InteractionStore

	// Limit 是读取的日志条数上限，默认 100。
	Limit int
}

func (n *InteractionLogNode) Name() string        { return "rerank.log" }
func (n *InteractionLogNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *InteractionLogNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Store == nil || rctx == nil || rctx.User == nil || len(items) == 0 {
		return items, nil
	}

	limit := n.Limit
	if limit <= 0 {
		limit = 100
	}
	recs, err := n.Store.Recent(ctx, rctx.User.ID, limit)
	if err != nil {
		return items, nil
	}

	// 日志最新在前：正向扫描时，先看到的点击/获得发生在后续的推荐记录"之后"，
	// 因此一个 recommend 记录只要此前（时间上更晚）出现过正反馈就不降权。
	engaged := make(map[int64]bool)
	demote := make(map[int64]bool)
	for _, rec := range recs {
		switch rec.Type {
		case core.InteractionClick, core.InteractionAcquire:
			engaged[rec.ItemID] = true
		case core.InteractionRecommend:
			if !engaged[rec.ItemID] {
				demote[rec.ItemID] = true
			}
		}
	}
	if len(demote) == 0 {
		return items, nil
	}

	kept := make([]*core.Item, 0, len(items))
	demoted := make([]*core.Item, 0, len(demote))
	for _, it := range items {
		if demote[it.ID] {
			it.PutLabel("demoted", core.Label{Value: "seen", Source: n.Name()})
			demoted = append(demoted, it)
			continue
		}
		kept = append(kept, it)
	}
	return append(kept, demoted...), nil
}
