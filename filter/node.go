package filter

import (
	"context"
	"math"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
)

// Node 是过滤 Node，组合多个 Filter 依次检查。
// 任一 Filter 命中即屏蔽：分数置 -Inf 并打上屏蔽原因 Label。
// 输出与输入长度恒等（屏蔽而非删除）。
type Node struct {
	Filters []Filter
}

func (n *Node) Name() string        { return "filter" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *Node) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	for _, item := range items {
		if item == nil {
			continue
		}
		for _, f := range n.Filters {
			masked, err := f.ShouldMask(ctx, rctx, item)
			if err != nil {
				// 单个过滤器出错不中断整条链路，跳过该过滤器
				continue
			}
			if masked {
				item.Score = math.Inf(-1)
				item.PutLabel("masked", core.Label{Value: "true", Source: f.Name()})
				break
			}
		}
	}
	return items, nil
}
